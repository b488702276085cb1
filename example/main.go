package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kumabeacon"
	"kumabeacon/internal/hw"
)

func main() {
	// start mock Uptime Kuma (see mock_server.go)
	go StartMockKumaServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	website, err := kumabeacon.NewBinding(kumabeacon.MonitorName("Website"), []int{17})
	if err != nil {
		slog.Error("failed to create binding", "error", err)
		os.Exit(1)
	}
	// database alarm: two lamps that light when the monitor is DOWN
	dbAlarm, err := kumabeacon.NewBinding(
		kumabeacon.MonitorID(3),
		[]int{22, 27},
		kumabeacon.Inverted(),
	)
	if err != nil {
		slog.Error("failed to create binding", "error", err)
		os.Exit(1)
	}

	b, err := kumabeacon.New(
		kumabeacon.WithStatusPage("http://localhost:9999", "default"),
		kumabeacon.WithBindings(website, dbAlarm),
		kumabeacon.WithInterval(2*time.Second),
		kumabeacon.WithHardware(hw.NewSimBackend(logger)),
		kumabeacon.WithListenAddress(":9770"),
		kumabeacon.WithLogger(logger),
		kumabeacon.WithTransitionCallback(func(tr kumabeacon.Transition) {
			fmt.Printf("  >> %s is %s, pins %v driven %v\n",
				tr.Monitor, tr.Status, tr.Pins, tr.Level)
		}),
	)
	if err != nil {
		slog.Error("failed to create beacon", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   kumabeacon Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Simulated GPIO, mock status page on :9999           ║")
	fmt.Println("  ║   Status API: http://localhost:9770/api/status        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Bindings:                                           ║")
	fmt.Println("  ║   • Website  -> pin 17                                ║")
	fmt.Println("  ║   • Database -> pins 22, 27 (inverted alarm)          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		slog.Error("beacon error", "error", err)
		os.Exit(1)
	}
}
