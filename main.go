package main

import (
	"github.com/LusoHub/verification_service/config"
	"github.com/LusoHub/verification_service/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
