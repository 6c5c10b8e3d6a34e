package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"joa_realtime/internal/chat/app"
	"joa_realtime/internal/chat/conn"
	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	"joa_realtime/internal/chat/repository"
	locapp "joa_realtime/internal/location/app"
	locdomain "joa_realtime/internal/location/domain"
	"joa_realtime/pkg/config"
	"joa_realtime/pkg/logger"
	"joa_realtime/pkg/session"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	memberID int64
	token    string
	roomID   int64
	peerID   int64
	protocol string
	lat, lng float64
}

func parseFlags() options {
	var o options
	pflag.Int64Var(&o.memberID, "member", 0, "logged in member id")
	pflag.StringVar(&o.token, "token", os.Getenv("JOA_TOKEN"), "JWT sent as auth param and bearer")
	pflag.Int64Var(&o.roomID, "room", 0, "open this room instead of the inbox")
	pflag.Int64Var(&o.peerID, "announce", 0, "announce a new room with this peer, needs --room")
	pflag.StringVar(&o.protocol, "protocol", "", "frame codec: legacy | envelope, overrides the yaml")
	pflag.Float64Var(&o.lat, "lat", 0, "latitude for the location reporter")
	pflag.Float64Var(&o.lng, "lng", 0, "longitude for the location reporter")
	pflag.Parse()
	return o
}

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatClient, config.EnvConfig.ChatClientLogPath)
	cfg := config.LoadConfig[config.ChatClient](config.EnvConfig.ChatClient, config.EnvConfig.ChatClientYAMLPath)
	cfg.Defaults()

	o := parseFlags()
	if o.protocol != "" {
		cfg.Protocol = o.protocol
	}
	sess, err := session.New(o.memberID, o.token)
	if err != nil {
		logger.Log.Fatal("invalid session", zap.Error(err))
	}
	codec, err := protocol.New(cfg.Protocol)
	if err != nil {
		logger.Log.Fatal("invalid protocol", zap.String("protocol", cfg.Protocol), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 建立 REST / 圖片 collaborator
	rest := repository.NewRESTRepository(cfg.REST, sess.Token)
	images := newImages(cfg.ImageStore)

	// 2. 建立連線管理
	metrics := conn.NewMetrics(prometheus.NewRegistry())
	dialer := conn.NewGorillaDialer(10 * time.Second)
	newManager := func(name, url string) *conn.Manager {
		return conn.NewManager(dialer, conn.Options{
			Name:     name,
			URL:      conn.WithProtocol(url, cfg.Protocol),
			Liveness: conn.LivenessFromConfig(cfg.Liveness),
			Metrics:  metrics,
		})
	}

	// 3. 位置回報
	if cfg.Location.Enabled {
		reporter := locapp.NewReporter(cfg.Location, sess,
			locapp.StaticSource{Position: locdomain.Position{Latitude: o.lat, Longitude: o.lng}},
			rest, clock.New())
		go func() {
			if err := reporter.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Log.Error("location reporter stopped", zap.Error(err))
			}
		}()
		go printStatuses(ctx, reporter)
	}

	if o.roomID > 0 {
		runRoom(ctx, sess, o, codec, rest, newManager("room", conn.RoomURL(cfg.Host, cfg.Secure, sess, o.roomID)), newManager("inbox", conn.InboxURL(cfg.Host, cfg.Secure, sess)))
		return
	}
	runInbox(ctx, sess, codec, rest, images, newManager("inbox", conn.InboxURL(cfg.Host, cfg.Secure, sess)))
}

// imageResolver nil when no object store is configured
type imageResolver interface {
	ResolveURL(ctx context.Context, imageRef string) (string, error)
}

func newImages(cfg config.ImageStoreConfig) imageResolver {
	if cfg.Endpoint == "" {
		return nil
	}
	store, err := repository.NewImageStore(cfg)
	if err != nil {
		logger.Log.Warn("image store unavailable, showing image refs", zap.Error(err))
		return nil
	}
	return repository.NewImageRepository(store, cfg)
}

func runInbox(ctx context.Context, sess session.Session, codec protocol.Codec, rest *repository.RESTRepository, images imageResolver, c *conn.Manager) {
	uc := app.NewInboxUseCase(sess, c, codec, rest)
	if err := uc.Start(ctx); err != nil {
		logger.Log.Fatal("start inbox failed", zap.Int64("member_id", sess.MemberID), zap.Error(err))
	}
	defer uc.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-uc.Changes():
		}
		rooms, err := uc.Snapshot(ctx)
		if err != nil {
			return
		}
		fmt.Println("---- inbox ----")
		for _, r := range rooms {
			fmt.Printf("#%d %s (%d unread) %s %s\n", r.RoomID, r.PeerName, r.UnreadCount, r.LastMessage, imageURL(ctx, images, r.PeerImageRef))
		}
	}
}

func imageURL(ctx context.Context, images imageResolver, ref string) string {
	if images == nil {
		return ref
	}
	u, err := images.ResolveURL(ctx, ref)
	if err != nil {
		logger.Log.Debug("resolve image failed", zap.String("ref", ref), zap.Error(err))
		return ref
	}
	return u
}

// runRoom print the timeline and send each stdin line, "/leave" leaves the room
// and "/extend" votes to extend it
func runRoom(ctx context.Context, sess session.Session, o options, codec protocol.Codec, rest *repository.RESTRepository, c, inboxConn *conn.Manager) {
	if o.peerID > 0 {
		inbox := app.NewInboxUseCase(sess, inboxConn, codec, rest)
		if err := inbox.Start(ctx); err != nil {
			logger.Log.Fatal("start inbox failed", zap.Error(err))
		}
		if err := inbox.AnnounceRoom(ctx, o.roomID, o.peerID); err != nil {
			logger.Log.Error("announce room failed", zap.Int64("room_id", o.roomID), zap.Error(err))
		}
		defer inbox.Stop()
	}

	if status, err := rest.CheckRoom(ctx, o.roomID); err == nil {
		fmt.Printf("room %d: %s\n", o.roomID, status)
	}
	if peer, err := rest.PeerProfile(ctx, o.roomID, sess.MemberID); err == nil {
		fmt.Printf("chatting with %s\n", peer.Name)
	}

	uc := app.NewRoomUseCase(sess, o.roomID, c, codec, rest, time.Now)
	if err := uc.Start(ctx); err != nil {
		logger.Log.Fatal("start room failed", zap.Int64("room_id", o.roomID), zap.Error(err))
	}
	defer uc.Stop()

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-uc.Changes():
			view, err := uc.Snapshot(ctx)
			if err != nil {
				return
			}
			printed = printTimeline(view, printed)
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch strings.TrimSpace(line) {
			case "/leave":
				if err := uc.Leave(ctx); err != nil {
					logger.Log.Error("leave room failed", zap.Error(err))
				}
				return
			case "/extend":
				printVote(uc.VoteExtension(ctx))
				continue
			}
			if _, err := uc.Send(ctx, line); err != nil {
				fmt.Println("send failed:", err)
			}
		}
	}
}

func printVote(vote domain.VoteResult, err error) {
	switch {
	case err != nil:
		fmt.Println("extend failed:", err)
	case vote.Extended():
		fmt.Println("** room extended")
	case vote.Result == domain.VoteDeclined:
		fmt.Println("** peer declined the extension")
	default:
		fmt.Println("** waiting for the peer to vote")
	}
}

// printTimeline print entries after the first n, read flags of old entries are not reprinted
func printTimeline(view app.RoomView, n int) int {
	if n > len(view.Messages) {
		n = 0
	}
	for _, m := range view.Messages[n:] {
		switch {
		case m.Kind == domain.KindNotice:
			fmt.Println("** " + m.Content)
		case m.SenderIsSelf:
			fmt.Printf("me> %s\n", m.Content)
		default:
			fmt.Printf("peer> %s\n", m.Content)
		}
	}
	return len(view.Messages)
}

func printStatuses(ctx context.Context, r *locapp.Reporter) {
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-r.Statuses():
			logger.Log.Info("location report", zap.Int("state", int(st.State)), zap.Time("at", st.At), zap.Error(st.Err))
		}
	}
}
