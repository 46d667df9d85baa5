// Command-line cooking session: chat with the assistant about one recipe
// straight from the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"souschef/config"
	"souschef/controllers"
	"souschef/services/llm"
	"souschef/sources/psql"
	"souschef/sources/psql/dao"
	"souschef/utils/color"
	"souschef/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	args := os.Args[1:]
	if len(args) < 2 || args[0] != "cook" {
		fmt.Println("souschef CLI usage:")
		fmt.Println("  souschef cook <recipe_id>   # start a cooking session in the terminal")
		os.Exit(1)
	}
	recipeID, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		fmt.Println(color.ColorError("invalid recipe id: " + args[1]))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := psql.NewDatabase(ctx, cfg)
	cancel()
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		fmt.Println(color.ColorError("cannot connect to database"))
		os.Exit(1)
	}
	defer db.Close()

	recipeDAO := dao.NewRecipeDAO(db.DB)
	var provider llm.Provider
	if cfg.LLMProvider == "ollama" {
		provider = llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.LLMTimeout)
	} else {
		provider = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.LLMTimeout)
	}
	ctrl := controllers.NewCookingController(recipeDAO, provider, cfg)

	const clientKey = "cli"
	started, err := ctrl.StartSession(context.Background(), clientKey, uint(recipeID))
	if err != nil {
		fmt.Println(color.ColorError("could not start session: " + err.Error()))
		os.Exit(1)
	}
	defer ctrl.EndSession(started.SessionID)

	fmt.Println(color.ColorInfo(fmt.Sprintf("Cooking %q: %d ingredients, %d steps.",
		started.RecipeName, started.TotalIngredients, started.TotalSteps)))
	fmt.Println("Ask anything about the recipe. Type 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.ColorPrompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println(color.ColorInfo("Happy cooking!"))
			break
		}
		if line == "" {
			continue
		}

		events, err := ctrl.StreamMessage(context.Background(), clientKey, started.SessionID, line)
		if err != nil {
			fmt.Println(color.ColorWarning(err.Error()))
			continue
		}
		for ev := range events {
			switch {
			case ev.Err != nil:
				fmt.Println()
				fmt.Println(color.ColorWarning("assistant unavailable, try again"))
			case ev.Done:
				fmt.Println()
			default:
				fmt.Print(color.ColorAssistant(ev.Token))
			}
		}
		fmt.Println()
	}
}
