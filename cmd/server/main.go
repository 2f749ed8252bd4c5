package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/cduffaut/dentest/internal/auth"
	"github.com/cduffaut/dentest/internal/config"
	"github.com/cduffaut/dentest/internal/database"
	"github.com/cduffaut/dentest/internal/email"
	"github.com/cduffaut/dentest/internal/middleware"
	"github.com/cduffaut/dentest/internal/questions"
	"github.com/cduffaut/dentest/internal/user"
	"goji.io"
	"goji.io/pat"
)

func main() {
	// charger la config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erreur lors du chargement de la configuration: %v", err)
	}

	// initialiser la DB
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Erreur lors de la connexion à la base de données: %v", err)
	}
	defer db.Close()

	// exec les migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Erreur lors de l'exécution des migrations: %v", err)
	}

	// init les repos
	userRepo := user.NewPostgresRepository(db)
	questionRepo := questions.NewPostgresRepository(db)

	// init les services
	emailService, err := email.NewService(cfg.SMTP, cfg.Email)
	if err != nil {
		log.Fatalf("Erreur lors de l'initialisation du service d'email: %v", err)
	}

	authService := auth.NewService(userRepo, emailService, cfg.Auth)
	questionService := questions.NewService(questionRepo, cfg.Auth.PrivilegedGroupName)

	// init les handlers
	authHandlers := auth.NewHandlers(authService)
	questionHandlers := questions.NewHandlers(questionService)

	// init les middlewares
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// creation multiplexeur goji
	mux := goji.NewMux()

	// API d'auth publique
	mux.HandleFunc(pat.Post("/auth/register/"), authHandlers.RegisterHandler)
	mux.HandleFunc(pat.Post("/auth/login/"), authHandlers.LoginHandler)
	mux.HandleFunc(pat.Post("/auth/activate/"), authHandlers.ActivateHandler)
	mux.HandleFunc(pat.Post("/auth/password_reset/"), authHandlers.PasswordResetHandler)
	mux.HandleFunc(pat.Post("/auth/password_reset_confirm/"), authHandlers.PasswordResetConfirmHandler)

	// routes protegees par token
	protectedMux := goji.SubMux()
	protectedMux.Use(authMiddleware.RequireAuth)

	protectedMux.HandleFunc(pat.Get("/auth/user/"), authHandlers.GetUserHandler)
	protectedMux.HandleFunc(pat.Put("/auth/user/"), authHandlers.UpdateUserInfoHandler)
	protectedMux.HandleFunc(pat.Post("/auth/logout/"), authHandlers.LogoutHandler)

	// catalogue
	protectedMux.HandleFunc(pat.Get("/topics/"), questionHandlers.ListTopicsHandler)
	protectedMux.HandleFunc(pat.Post("/topics/"), questionHandlers.CreateTopicHandler)
	protectedMux.HandleFunc(pat.Get("/subtopics/"), questionHandlers.ListSubtopicsHandler)
	protectedMux.HandleFunc(pat.Post("/subtopics/"), questionHandlers.CreateSubtopicHandler)
	protectedMux.HandleFunc(pat.Get("/questions/"), questionHandlers.ListQuestionsHandler)

	// add les routes protegees au mux principal
	mux.Handle(pat.New("/*"), protectedMux)

	// start le serv
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Serveur démarré sur http://localhost%s\n", serverAddr)
	log.Fatal(http.ListenAndServe(serverAddr, mux))
}
