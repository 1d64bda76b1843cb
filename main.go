package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"tasklog-service/clients"
	"tasklog-service/handlers"
	"tasklog-service/logging"
	"tasklog-service/middleware"
	"tasklog-service/repositories"
	"tasklog-service/services"
	"tasklog-service/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasklog Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: Could not load .env file, relying on environment: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	tasksCollection := client.Database(mongoDBName).Collection("tasks")
	usersCollection := client.Database(mongoDBName).Collection("users")

	auditRepo, err := repositories.NewAuditRepo()
	if err != nil {
		logging.Logger.Fatalf("Event ID: AUDIT_DB_FATAL, Description: Could not initialize audit store: %v", err)
	}
	defer auditRepo.CloseSession()
	auditRepo.CreateTable()

	httpClient := utils.NewHTTPClient()

	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	notifier := clients.NewNotificationClient(httpClient, notificationsBreaker, os.Getenv("NOTIFICATIONS_SERVICE_URL"))

	taskRepo := repositories.NewTaskRepository(tasksCollection)
	userRepo := repositories.NewUserRepository(usersCollection)
	accessPolicy := services.NewAccessPolicy()
	maskingPolicy := services.NewMaskingPolicy()
	resolver := services.NewIdentityResolver(taskRepo, auditRepo)

	jwtService := services.NewJWTService(os.Getenv("JWT_SECRET"))
	userService := services.NewUserService(userRepo, jwtService, resolver)
	taskService := services.NewTaskService(taskRepo, accessPolicy, maskingPolicy, userService, auditRepo, notifier)

	taskHandler := handlers.NewTaskHandler(taskService)
	loginHandler := &handlers.LoginHandler{UserService: userService}
	userHandler := &handlers.UserHandler{UserService: userService}

	r := mux.NewRouter()

	r.HandleFunc("/api/users/register", userHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/users/confirm", userHandler.ConfirmUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", loginHandler.Login).Methods(http.MethodPost)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(func(next http.Handler) http.Handler {
		return middleware.JWTAuthMiddleware(jwtService, next)
	})
	authed.HandleFunc("/users/me", userHandler.GetCurrentUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/preferences", userHandler.UpdatePreferences).Methods(http.MethodPatch)
	authed.HandleFunc("/users/resync-assignments", userHandler.ResyncAssignments).Methods(http.MethodPost)
	authed.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{taskID}", taskHandler.GetTask).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{taskID}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	authed.HandleFunc("/tasks/{taskID}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks/{taskID}/restore", taskHandler.RestoreTask).Methods(http.MethodPost)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
