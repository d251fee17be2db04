package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Parimal-b/InstagramCloneApp/internal/blob"
	"github.com/Parimal-b/InstagramCloneApp/internal/config"
	"github.com/Parimal-b/InstagramCloneApp/internal/feed"
	"github.com/Parimal-b/InstagramCloneApp/internal/identity"
	"github.com/Parimal-b/InstagramCloneApp/internal/store"
	"github.com/Parimal-b/InstagramCloneApp/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Store    store.Client
	Identity identity.Client
	Blob     blob.Client
	Stream   *stream.Hub

	mu      sync.Mutex
	facades map[string]*feed.Facade
}

func NewServer(cfg config.Config, st store.Client, idc identity.Client, bc blob.Client, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Store:    st,
		Identity: idc,
		Blob:     bc,
		Stream:   stream.NewHub(redisClient),
		facades:  map[string]*feed.Facade{},
	}

	registerRoutes(s)
	return s
}

func (s *Server) newFacade() *feed.Facade {
	return feed.New(s.Identity, s.Store, s.Blob, feed.Options{
		FeedWindow: time.Duration(s.Cfg.FeedWindowHours) * time.Hour,
		StatusTTL:  time.Duration(s.Cfg.StatusTTLHours) * time.Hour,
	})
}

// adopt registers an authenticated facade and wires its projections into
// the event stream for that account.
func (s *Server) adopt(accountID string, fac *feed.Facade) {
	s.mu.Lock()
	s.facades[accountID] = fac
	s.mu.Unlock()
	s.watch(accountID, fac)
}

// facade returns the session facade for an account, bootstrapping one from
// the bearer token on first use (e.g. after a server restart).
func (s *Server) facade(ctx context.Context, accountID, token string) (*feed.Facade, error) {
	s.mu.Lock()
	fac, ok := s.facades[accountID]
	s.mu.Unlock()
	if ok {
		return fac, nil
	}

	fac = s.newFacade()
	if err := fac.Bootstrap(ctx, token); err != nil {
		return nil, err
	}
	if fac.CurrentUserID() == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "session expired")
	}
	s.adopt(accountID, fac)
	return fac, nil
}

func (s *Server) drop(accountID string) {
	s.mu.Lock()
	delete(s.facades, accountID)
	s.mu.Unlock()
}

// watch pushes projection updates to the account's websocket clients.
func (s *Server) watch(accountID string, fac *feed.Facade) {
	emit := func(projection string) func(any) {
		return func(value any) {
			payload, err := json.Marshal(fiber.Map{"projection": projection, "data": value})
			if err != nil {
				return
			}
			s.Stream.Broadcast(accountID, payload)
		}
	}

	fac.PostsFeed.Watch(wrap[[]feed.Post](emit("posts_feed")))
	fac.Posts.Watch(wrap[[]feed.Post](emit("posts")))
	fac.Chats.Watch(wrap[[]feed.Conversation](emit("chats")))
	fac.ChatMessages.Watch(wrap[[]feed.Message](emit("chat_messages")))
	fac.Statuses.Watch(wrap[[]feed.Status](emit("statuses")))
	fac.Recommendations.Watch(wrap[[]feed.Account](emit("recommendations")))
	fac.Followers.Watch(wrap[int](emit("followers")))
	fac.Notice.Watch(wrap[*feed.Notice](emit("notice")))
}

func wrap[T any](fn func(any)) func(T) {
	return func(v T) { fn(v) }
}
