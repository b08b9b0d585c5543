package routes

import (
	"campuslearn_server/controllers"
	"campuslearn_server/middleware"
	"campuslearn_server/services"

	"github.com/gorilla/mux"
)

// RegisterGroupRoutes sets up routes for group operations under /api/groups
func RegisterGroupRoutes(r *mux.Router, groupService *services.GroupService, verifier middleware.Verifier) {
	controller := controllers.NewGroupController(groupService)

	groupRouter := r.PathPrefix("/api/groups").Subrouter()
	groupRouter.Use(middleware.RequireAuth(verifier))

	groupRouter.HandleFunc("", controller.HandleCreateGroup).Methods("POST")
	groupRouter.HandleFunc("/mine", controller.HandleMyGroups).Methods("GET")
	groupRouter.HandleFunc("/enrolled", controller.HandleEnrolledGroups).Methods("GET")
	groupRouter.HandleFunc("/{id}", controller.HandleGetGroup).Methods("GET")
	groupRouter.HandleFunc("/{id}/refresh", controller.HandleRefreshMembers).Methods("PUT")
	groupRouter.HandleFunc("/{id}", controller.HandleDeleteGroup).Methods("DELETE")
}
