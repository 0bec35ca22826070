package main

import (
	"context"
	"time"

	"clickcode-go/services/config"
)

// deviceID selects the embedded configuration. Override at link time:
//
//	go build -ldflags "-X main.deviceID=sim"
var deviceID = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot", deviceID)

	ctx := config.WithDevice(context.Background(), deviceID)
	a := newApp()
	if err := a.start(ctx); err != nil {
		println("Error: startup failed:", err.Error())
	}

	// Services run for the lifetime of the device.
	select {}
}
