package routes

import (
	"campuslearn_server/controllers"
	"campuslearn_server/middleware"
	"campuslearn_server/realtime"
	"campuslearn_server/services"

	"github.com/gorilla/mux"
)

// RegisterMessageRoutes sets up routes for message operations under
// /api/messages. The clear route is registered before the id route so
// "clear" never matches as a message id.
func RegisterMessageRoutes(r *mux.Router, messageService *services.MessageService, publisher realtime.Publisher, verifier middleware.Verifier) {
	controller := controllers.NewMessageController(messageService, publisher)

	messageRouter := r.PathPrefix("/api/messages").Subrouter()
	messageRouter.Use(middleware.RequireAuth(verifier))

	messageRouter.HandleFunc("", controller.HandleSendMessage).Methods("POST")
	messageRouter.HandleFunc("/clear/{groupId}", controller.HandleClearChat).Methods("DELETE")
	messageRouter.HandleFunc("/{id}/attachment", controller.HandleDownloadAttachment).Methods("GET")
	messageRouter.HandleFunc("/{groupId}/read", controller.HandleMarkRead).Methods("POST")
	messageRouter.HandleFunc("/{groupId}", controller.HandleGetMessages).Methods("GET")
	messageRouter.HandleFunc("/{id}", controller.HandleDeleteMessage).Methods("DELETE")
}
