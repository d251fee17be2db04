package server

import (
	"github.com/Parimal-b/InstagramCloneApp/internal/feed"
	"github.com/Parimal-b/InstagramCloneApp/internal/identity"
	"github.com/Parimal-b/InstagramCloneApp/internal/stream"

	"github.com/gofiber/fiber/v2"
)

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authed := identity.Middleware(s.Cfg.JWTSecret)

	registerAuthRoutes(s, s.App.Group("/auth"))
	registerProfileRoutes(s, s.App.Group("/profile", authed))
	registerPostRoutes(s, s.App.Group("/posts", authed))
	registerFeedRoutes(s, s.App.Group("/feed", authed))
	registerSearchRoutes(s, s.App.Group("/search", authed))
	registerSocialRoutes(s, s.App.Group("/social", authed))
	registerChatRoutes(s, s.App.Group("/chat", authed))
	registerStatusRoutes(s, s.App.Group("/status", authed))
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// sessionFacade resolves the per-account facade for an authenticated request.
func (s *Server) sessionFacade(c *fiber.Ctx) (*feed.Facade, error) {
	accountID, _ := c.Locals("user_id").(string)
	token, _ := c.Locals("token").(string)
	fac, err := s.facade(c.Context(), accountID, token)
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return nil, fe
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return fac, nil
}

func registerAuthRoutes(s *Server, r fiber.Router) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req struct {
			UserName string `json:"user_name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		fac := s.newFacade()
		if err := fac.SignUp(c.Context(), req.UserName, req.Email, req.Password); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		session := fac.Session()
		s.adopt(session.AccountID, fac)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"user":    fac.UserData.Get(),
			"session": session,
		})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password required")
		}
		fac := s.newFacade()
		if err := fac.SignIn(c.Context(), req.Email, req.Password); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		session := fac.Session()
		s.adopt(session.AccountID, fac)
		return c.JSON(fiber.Map{
			"user":    fac.UserData.Get(),
			"session": session,
		})
	})

	r.Post("/logout", identity.Middleware(s.Cfg.JWTSecret), func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		accountID, _ := c.Locals("user_id").(string)
		fac.SignOut(c.Context())
		s.drop(accountID)
		return c.JSON(fiber.Map{"status": "logged out"})
	})
}

func registerProfileRoutes(s *Server, r fiber.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		return c.JSON(fac.UserData.Get())
	})

	r.Put("/", func(c *fiber.Ctx) error {
		var req struct {
			Name     string `json:"name"`
			UserName string `json:"user_name"`
			Bio      string `json:"bio"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.UpdateProfile(c.Context(), req.Name, req.UserName, req.Bio); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fac.UserData.Get())
	})

	r.Post("/avatar", func(c *fiber.Ctx) error {
		var req struct {
			LocalRef string `json:"local_ref"`
		}
		if err := c.BodyParser(&req); err != nil || req.LocalRef == "" {
			return fiber.NewError(fiber.StatusBadRequest, "local_ref required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.UploadProfileImage(req.LocalRef)
		return c.SendStatus(fiber.StatusAccepted)
	})
}

func registerPostRoutes(s *Server, r fiber.Router) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			LocalRef    string `json:"local_ref"`
			Description string `json:"description"`
			TaggedUsers string `json:"tagged_users"`
		}
		if err := c.BodyParser(&req); err != nil || req.LocalRef == "" {
			return fiber.NewError(fiber.StatusBadRequest, "local_ref required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.NewPost(req.LocalRef, req.Description, req.TaggedUsers, nil)
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.RefreshPosts(c.Context())
		return c.JSON(fac.Posts.Get())
	})

	r.Post("/:id/like", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.LikePost(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/comments", func(c *fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&req); err != nil || req.Text == "" {
			return fiber.NewError(fiber.StatusBadRequest, "text required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.CreateComment(c.Context(), c.Params("id"), req.Text); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fac.Comments.Get())
	})

	r.Get("/:id/comments", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.FetchComments(c.Context(), c.Params("id"))
		return c.JSON(fac.Comments.Get())
	})
}

func registerFeedRoutes(s *Server, r fiber.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.PersonalizedFeed(c.Context())
		return c.JSON(fac.PostsFeed.Get())
	})
}

func registerSearchRoutes(s *Server, r fiber.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		term := c.Query("q")
		if term == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.SearchPosts(c.Context(), term)
		fac.SearchPeople(c.Context(), term)
		return c.JSON(fiber.Map{
			"posts":           fac.SearchedPosts.Get(),
			"people_by_posts": fac.SearchedPeopleByPost.Get(),
			"people":          fac.SearchOnlyPeople.Get(),
		})
	})
}

func registerSocialRoutes(s *Server, r fiber.Router) {
	r.Post("/follow", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.ToggleFollow(c.Context(), req.UserID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fac.UserData.Get())
	})

	r.Get("/followers", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.FetchFollowers(c.Context(), fac.CurrentUserID())
		return c.JSON(fiber.Map{
			"count": fac.Followers.Get(),
			"users": fac.SortedUsers.Get(),
		})
	})

	r.Get("/following", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.FetchFollowing(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fac.Following.Get())
	})

	r.Get("/recommendations", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		return c.JSON(fac.Recommendations.Get())
	})

	r.Get("/profile/:id", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.FetchUserProfile(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(fiber.Map{
			"user":      fac.UserProfile.Get(),
			"posts":     fac.UserPosts.Get(),
			"followers": fac.UserFollowers.Get(),
		})
	})
}

func registerChatRoutes(s *Server, r fiber.Router) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			UserName string `json:"user_name"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_name required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.AddChat(c.Context(), req.UserName, nil); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chat_id": fac.ChatID.Get()})
	})

	r.Get("/", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		return c.JSON(fac.Chats.Get())
	})

	r.Get("/resolve", func(c *fiber.Ctx) error {
		peer := c.Query("user_id")
		if peer == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		chatID, err := fac.ResolveChatID(c.Context(), fac.CurrentUserID(), peer)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"chat_id": chatID})
	})

	r.Post("/:id/open", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.OpenChat(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/close", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.CloseChat()
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/messages", func(c *fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&req); err != nil || req.Text == "" {
			return fiber.NewError(fiber.StatusBadRequest, "text required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		if err := fac.SendMessage(c.Context(), c.Params("id"), req.Text); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Get("/:id/messages", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		return c.JSON(fac.ChatMessages.Get())
	})
}

func registerStatusRoutes(s *Server, r fiber.Router) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			LocalRef string `json:"local_ref"`
		}
		if err := c.BodyParser(&req); err != nil || req.LocalRef == "" {
			return fiber.NewError(fiber.StatusBadRequest, "local_ref required")
		}
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		fac.UploadStatus(req.LocalRef)
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		fac, err := s.sessionFacade(c)
		if err != nil {
			return err
		}
		return c.JSON(fac.Statuses.Get())
	})
}
