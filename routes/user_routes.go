package routes

import (
	"campuslearn_server/controllers"
	"campuslearn_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserRoutes sets up registration under /api/users. Registration is
// unauthenticated; login and token issuance live in the account service.
func RegisterUserRoutes(r *mux.Router, userService *services.UserService) {
	controller := controllers.NewUserController(userService)

	userRouter := r.PathPrefix("/api/users").Subrouter()
	userRouter.HandleFunc("/register", controller.HandleRegister).Methods("POST")
}
