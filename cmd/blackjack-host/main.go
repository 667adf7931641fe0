package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/casinoroyale/blackjack/server"
)

const defaultDiscoveryPort = 13122

func main() {
	godotenv.Load()

	name := flag.String("name", getenv("BLACKJACK_HOST_NAME", "CasinoRoyaleServer"), "host name advertised in offers")
	listen := flag.String("listen", getenv("BLACKJACK_LISTEN_ADDR", ":0"), "TCP session listen address, port 0 lets the OS pick")
	discoveryPort := flag.Uint("discovery-port", defaultDiscoveryPort, "UDP discovery port offers are broadcast to")
	interval := flag.Duration("interval", time.Second, "offer broadcast interval")
	apiAddr := flag.String("api", getenv("BLACKJACK_API_ADDR", ""), "status API listen address, empty disables it")
	hitSoft17 := flag.Bool("hit-soft-17", false, "dealer hits a soft 17")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	srv := server.NewServer(server.ServerConfig{
		HostName:          *name,
		ListenAddr:        *listen,
		DiscoveryPort:     uint16(*discoveryPort),
		BroadcastInterval: *interval,
		APIListenAddr:     *apiAddr,
		HitSoft17:         *hitSoft17,
	})
	if err := srv.Start(); err != nil {
		logrus.WithError(err).Fatal("host stopped")
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
