package routes

import (
	"campuslearn_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the public routes for the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
}
