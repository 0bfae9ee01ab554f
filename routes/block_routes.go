package routes

import (
	"venturelink_server/controllers"
	"venturelink_server/services"

	"github.com/gorilla/mux"
)

// RegisterBlockRoutes sets up block routes under /api/blocks.
func RegisterBlockRoutes(r *mux.Router, blocks *services.BlockService) {
	controller := controllers.NewBlockController(blocks)

	blockRouter := r.PathPrefix("/api/blocks").Subrouter()
	blockRouter.HandleFunc("", controller.Block).Methods("POST")
	blockRouter.HandleFunc("", controller.List).Methods("GET")
	blockRouter.HandleFunc("", controller.Unblock).Methods("DELETE")
	blockRouter.HandleFunc("/status", controller.Status).Methods("GET")
}
