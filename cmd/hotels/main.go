package main

import (
	"roombook/internal/hotels/handler"
	"roombook/internal/hotels/repository"
	"roombook/internal/hotels/service"
	"roombook/internal/hotels/sweeper"
	"roombook/internal/hotels/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
)

const ServiceName = "hotels"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Hotels service")

	lockRepo := repository.NewReservationLockRepository(cfg)
	roomRepo := repository.NewRoomRepository(cfg)
	roomMutex := repository.NewRoomMutex(cfg)
	hotelValidator := validator.NewHotelValidator(cfg.Log)
	hotelService := service.NewHotelService(lockRepo, roomRepo, roomMutex, hotelValidator, cfg)

	staleSweeper := sweeper.New(lockRepo, hotelService, cfg)
	staleSweeper.Start()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewHotelHandler(hotelService, cfg.Log))
	serverApp.OnShutdown(staleSweeper.Stop)
	serverApp.Run()
}
