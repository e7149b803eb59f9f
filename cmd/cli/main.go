package main

import (
	"bufio"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	appdb "github.com/yourorg/gensanfare/internal/db"
	"github.com/yourorg/gensanfare/internal/tariff"
	"github.com/yourorg/gensanfare/internal/transit"
)

func main() {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== GenSan Fare CLI ====")
		fmt.Println("1) Health check API")
		fmt.Println("2) Seed database (built-in routes)")
		fmt.Println("3) Compute fare")
		fmt.Println("4) List fixed routes")
		fmt.Println("5) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			doHealthCheck()
		case "2":
			doSeed()
		case "3":
			doFare(reader)
		case "4":
			doListRoutes()
		case "5":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func doHealthCheck() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	url := strings.TrimRight(base, "/") + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

func doSeed() {
	db, err := appdb.Connect()
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db); err != nil {
		log.Println("Ensure schema error:", err)
		return
	}
	if err := appdb.Seed(db); err != nil {
		log.Println("Seed error:", err)
		return
	}
	fmt.Println("Seed: route catalog ready")
}

func doFare(reader *bufio.Reader) {
	fmt.Print("Mode (trike/bus/jeep): ")
	mode, _ := reader.ReadString('\n')
	mode = strings.TrimSpace(mode)

	fmt.Print("Distance in km: ")
	raw, _ := reader.ReadString('\n')
	km, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		fmt.Println("Invalid distance:", err)
		return
	}

	quote, err := tariff.ComputeFare(tariff.Mode(mode), km)
	if err != nil {
		fmt.Println("Fare error:", err)
		return
	}
	fmt.Printf("Fare for %.3f km by %s: ₱%d\n", quote.DistanceKm, quote.Mode, quote.Fare)
}

func doListRoutes() {
	catalog := transit.BuiltIn()

	// Prefer the database catalog when one is reachable.
	if db, err := appdb.Connect(); err == nil {
		if err := db.Ping(); err == nil {
			if loaded, err := transit.Load(db); err == nil {
				catalog = loaded
			}
		}
		db.Close()
	}

	for _, route := range catalog.List() {
		fmt.Printf("%s (%s) — %d stops\n", route.Name, route.Key, len(route.Stops))
		for _, stop := range route.Stops {
			fmt.Printf("  %2d. %s (%.5f, %.5f)\n", stop.Seq, stop.Label, stop.Coord.Lat, stop.Coord.Lon)
		}
	}
}
