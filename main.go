package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"campuslearn_server/middleware"
	"campuslearn_server/realtime"
	"campuslearn_server/routes"
	"campuslearn_server/services"
	"campuslearn_server/storage"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	_ = godotenv.Load()

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Blob storage for message attachments: local disk by default, S3 when
	// BLOB_BACKEND=s3.
	var blobs storage.BlobStore
	var staticRoot string
	if os.Getenv("BLOB_BACKEND") == "s3" {
		s3Store, err := storage.NewS3Store(context.Background())
		if err != nil {
			log.Fatalf("Failed to initialize S3 blob store: %v", err)
		}
		blobs = s3Store
		log.Println("Using S3 blob store.")
	} else {
		uploadDir := os.Getenv("UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "uploads"
		}
		diskStore, err := storage.NewDiskStore(uploadDir)
		if err != nil {
			log.Fatalf("Failed to initialize disk blob store: %v", err)
		}
		blobs = diskStore
		staticRoot = uploadDir
		log.Printf("Using disk blob store at %s.", uploadDir)
	}

	// Initialize stores and services
	userStore := &services.DynamoUserStore{Dynamo: dynamoService}
	groupStore := &services.DynamoGroupStore{Dynamo: dynamoService}
	messageStore := &services.DynamoMessageStore{Dynamo: dynamoService}

	messageService := services.NewMessageService(messageStore, groupStore, userStore, blobs)
	groupService := &services.GroupService{Users: userStore, Groups: groupStore, Messages: messageService}
	userService := &services.UserService{Users: userStore, Groups: groupService}

	// Bearer-token verification (token issuance lives in the account service)
	verifier := &middleware.JWTVerifier{Secret: []byte(os.Getenv("JWT_SECRET"))}

	// Live event channel
	socketServer := realtime.NewSocketServer()
	go func() {
		if err := socketServer.IO().Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.IO().Close()

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register routes
	routes.RegisterRoutes(r)
	routes.RegisterUserRoutes(r, userService)
	routes.RegisterGroupRoutes(r, groupService, verifier)
	routes.RegisterMessageRoutes(r, messageService, socketServer, verifier)

	// Live channel endpoint
	r.PathPrefix("/socket.io/").Handler(socketServer.IO())

	// Static serving for disk-backed attachments
	if staticRoot != "" {
		r.PathPrefix(storage.URLPrefix).Handler(
			http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(staticRoot))))
	}

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
