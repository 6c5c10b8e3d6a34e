package token

import "joa_realtime/pkg/config"

// 這個變數會在測試時被覆蓋
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)

// GenerateJWTWrapper issue a member token signed by the relay
func GenerateJWTWrapper(memberID int64, role string) (string, error) {
	return GenerateJWTFunc(memberID, role, config.EnvConfig.RelayService)
}

// ParseJWTWrapper test mock使用這個包裝函數
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
