package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ddc002021/MapServerMCP/config"
	"github.com/ddc002021/MapServerMCP/db"
	"github.com/ddc002021/MapServerMCP/services"
	"github.com/ddc002021/MapServerMCP/services/agent"
)

func main() {
	cfg := config.Load()

	model, err := newModelClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model client: %v", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	tripRepo, err := newTripRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize trip repository: %v", err)
	}
	defer tripRepo.Close()

	coreParams := services.DefaultCoreMapParams()
	coreParams.RateLimitDelay = cfg.RateLimitDelay
	coreService := services.NewCoreMapService(httpClient, coreParams)
	defer coreService.Close()

	weatherParams := services.DefaultWeatherParams()
	weatherParams.RateLimitDelay = cfg.RateLimitDelay
	weatherService := services.NewWeatherService(httpClient, weatherParams)
	defer weatherService.Close()

	historyService := services.NewHistoryService(tripRepo)

	registry := agent.NewRegistry()
	if err := agent.RegisterMapTools(registry, coreService, historyService, weatherService); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	agentService := agent.NewService(model, registry, cfg.MaxToolRounds, cfg.Verbose)
	session := agentService.NewSession()

	printBanner(cfg)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nUser: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit":
			fmt.Println("\nExited.")
			return
		case "reset":
			session.Reset()
			fmt.Println("\nConversation reset.")
			continue
		}

		fmt.Print("\nAgent: ")
		answer, err := session.Chat(context.Background(), input)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
}

func newModelClient(cfg *config.Config) (agent.ModelClient, error) {
	switch cfg.ModelProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required")
		}
		return agent.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY environment variable is required")
		}
		return agent.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.ModelProvider)
	}
}

func newTripRepository(cfg *config.Config) (db.TripRepository, error) {
	if cfg.DatabaseURL != "" {
		return db.NewPostgresTripRepository(cfg.DatabaseURL)
	}
	return db.NewJSONTripRepository(cfg.TripDataFile)
}

func printBanner(cfg *config.Config) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("Map Agent")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Using model:", cfg.Model, "with verbose:", cfg.Verbose)
	fmt.Println("Type 'exit' to end the conversation.")
	fmt.Println("Type 'reset' to start a new conversation.")
	fmt.Println(line)
	fmt.Println("Example queries:")
	fmt.Println("Where is Times Square in New York City?")
	fmt.Println("What's at coordinates 33.8980915, 35.5649815?")
	fmt.Println("How do I get from Times Square to Central Park by walking?")
	fmt.Println("What are my most frequently visited places of all time?")
	fmt.Println("Show me my travel statistics overall all time.")
	fmt.Println("What's the weather like in Beirut today?")
	fmt.Println("What's the air quality like in Beirut today?")
	fmt.Println("What's the astronomy like in Beirut today?")
	fmt.Println("\nOr any complex combination/scenario of the above queries.")
	fmt.Println(line)
}
