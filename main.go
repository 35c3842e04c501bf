package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backend/internal/config"
	"backend/internal/daemon"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/identity"
	"backend/internal/middleware"
	"backend/internal/notify"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureMemberIndexes(db); err != nil {
		log.Printf("⚠️ member index warning: %v", err)
	}
	if err := database.EnsureKeywordIndexes(db); err != nil {
		log.Printf("⚠️ keyword index warning: %v", err)
	}
	if err := database.EnsurePlaceIndexes(db); err != nil {
		log.Printf("⚠️ place index warning: %v", err)
	}
	if err := database.EnsureMemberPlaceIndexes(db); err != nil {
		log.Printf("⚠️ member place index warning: %v", err)
	}
	if err := database.EnsureContentIndexes(db); err != nil {
		log.Printf("⚠️ content index warning: %v", err)
	}
	if err := database.EnsureRefreshTokenIndexes(db); err != nil {
		log.Printf("⚠️ refresh token index warning: %v", err)
	}

	var sender notify.Sender
	if config.AppEnv.PushGatewayURL != "" {
		sender = notify.NewGatewaySender(config.AppEnv.PushGatewayURL, config.AppEnv.PushAPIKey)
	} else {
		log.Println("PUSH_GATEWAY_URL not set, notifications go to the log")
		sender = notify.NewConsole()
	}

	verifier := identity.NewHSVerifier(config.AppEnv.IdentityTokenSecret)

	daemon.NewTrendScorer(db, config.AppEnv.TrendInterval).Start(context.Background())

	r := gin.Default()
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/signin", handlers.SignIn(
		db,
		verifier,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/refresh", handlers.Refresh(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/logout", handlers.Logout(db))

	r.GET("/keywords/trending", handlers.GetTrendingKeywords(db))
	r.GET("/keywords/popular", handlers.GetPopularKeywords(db))
	r.GET("/keywords/search", handlers.SearchKeywords(db))
	r.GET("/places/:id/keywords", handlers.GetPlaceKeywords(db))
	r.GET("/places/search", handlers.SearchPlacesByKeyword(db))

	r.GET("/feed/latest", handlers.GetLatestFeed(db))
	r.GET("/feed/popular", handlers.GetPopularFeed(db))

	r.POST("/ai/callback", handlers.AiCallback(db, sender))

	api := r.Group("/api")
	api.Use(middleware.MemberAuth(config.AppEnv.JWTSecret))
	{
		api.GET("/members/me", handlers.GetMe(db))
		api.DELETE("/members/me", handlers.Withdraw(db))
		api.GET("/members/check-name", handlers.CheckNameAvailability(db))
		api.PATCH("/members/me/terms", handlers.AgreeTerms(db))
		api.PATCH("/members/me/birth-date", handlers.SetBirthDate(db))
		api.PATCH("/members/me/gender", handlers.SetGender(db))
		api.PUT("/members/me/profile", handlers.UpdateProfile(db))

		api.GET("/places/temporary", handlers.GetTemporaryPlaces(db))
		api.GET("/places/saved", handlers.GetSavedPlaces(db))
		api.POST("/places/:placeId/save", handlers.SavePlace(db))
		api.DELETE("/places/temporary/:placeId", handlers.DeleteTemporaryPlace(db))

		api.GET("/bookmarks", handlers.GetBookmarks(db))
		api.PATCH("/bookmarks/:memberPlaceId", handlers.UpdateBookmark(db))

		api.POST("/contents", handlers.SubmitContent(db))
		api.GET("/contents/:id", handlers.GetContent(db))

		api.GET("/feed/top", handlers.GetMyTopPlaces(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
