package main

import (
	"net/http"
	"time"

	"venturelink_server/config"
	"venturelink_server/logger"
	"venturelink_server/routes"
	"venturelink_server/services"
	"venturelink_server/socket"
	"venturelink_server/utils"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("initializing DynamoDB client")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamo := &services.DynamoService{Client: dynamoClient, Log: log}

	storage := &services.S3Storage{
		Client: services.InitializeS3Client(),
		Bucket: cfg.S3Bucket,
		Region: cfg.AWSRegion,
		Log:    log,
	}

	socketServer := socket.NewServer(log)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Error("socket server stopped", zap.Error(err))
		}
	}()
	defer socketServer.Close()
	notifier := &socket.Notifier{Server: socketServer, Log: log}

	var summaries services.SummaryGenerator = services.StaticSummaryService{}
	if cfg.OpenAIAPIKey != "" {
		summaries = services.NewOpenAISummaryService(cfg.OpenAIAPIKey, log)
	}

	profileService := &services.UserProfileService{Dynamo: dynamo, Log: log}
	push := &services.ExpoPushService{
		Profiles: profileService,
		PushURL:  cfg.ExpoPushURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Log:      log,
	}

	connectionService := &services.ConnectionService{Dynamo: dynamo, Profiles: profileService, Log: log}
	requestService := &services.MessageRequestService{
		Dynamo:      dynamo,
		Connections: connectionService,
		Profiles:    profileService,
		Notifier:    notifier,
		Push:        push,
		Summaries:   summaries,
		Log:         log,
	}
	interestService := &services.InterestService{
		Dynamo:      dynamo,
		Connections: connectionService,
		Notifier:    notifier,
		Push:        push,
		Log:         log,
	}
	blockService := &services.BlockService{
		Dynamo:      dynamo,
		Connections: connectionService,
		Requests:    requestService,
		Interests:   interestService,
		Log:         log,
	}
	conversationService := &services.ConversationService{
		Dynamo:      dynamo,
		Connections: connectionService,
		Profiles:    profileService,
		Requests:    requestService,
		Log:         log,
	}
	messageService := &services.MessageService{
		Dynamo:        dynamo,
		Connections:   connectionService,
		Conversations: conversationService,
		Requests:      requestService,
		Storage:       storage,
		Notifier:      notifier,
		Push:          push,
		Summaries:     summaries,
		Log:           log,
	}

	// Mutual references resolved after construction.
	requestService.Conversations = conversationService
	requestService.Blocks = blockService
	interestService.Conversations = conversationService
	interestService.Blocks = blockService

	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"service": "venturelink"})
	}).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")

	r.Handle("/socket.io/", socketServer)

	routes.RegisterUserProfileRoutes(r, profileService)
	routes.RegisterConnectionRoutes(r, connectionService)
	routes.RegisterRequestRoutes(r, requestService)
	routes.RegisterInterestRoutes(r, interestService)
	routes.RegisterBlockRoutes(r, blockService)
	routes.RegisterChatRoutes(r, messageService, conversationService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-ID"},
		AllowCredentials: true,
	}).Handler(r)

	log.Info("starting server", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, corsHandler); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
