package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"card-psycho/internal/backend"
	"card-psycho/internal/config"
	"card-psycho/internal/domain"
	"card-psycho/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	client := backend.NewHTTPClient(
		cfg.BackendBaseURL,
		time.Duration(cfg.BackendTimeoutSeconds)*time.Second,
		logger,
	)
	analyzer := service.NewAnalyzeService(client, cfg.MaxUploadBytes, logger)
	battles := service.NewBattleService(nil, time.Duration(cfg.BattleSessionTTLMinutes)*time.Minute, logger)
	nav := service.NavigationEngine{}

	for {
		fmt.Println("===== Psycho Score CLI =====")
		fmt.Println("[1] Analizar tarjeta")
		fmt.Println("[2] Analisis rapido (sin audio)")
		fmt.Println("[3] Duelo directo (alpha vs beta)")
		fmt.Println("[4] Batalla por fases")
		fmt.Println("[5] Listar voces")
		fmt.Println("[Q] Salir")
		fmt.Print("Seleccion: ")

		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToUpper(choice))

		switch choice {
		case "1", "2":
			card, err := promptCard(reader, "Ruta de la imagen: ")
			if err != nil {
				fmt.Println("No pude leer la imagen:", err)
				continue
			}
			var result domain.AnalysisResult
			if choice == "1" {
				result, err = analyzer.Analyze(ctx, card)
			} else {
				result, err = analyzer.Quick(ctx, card)
			}
			if err != nil {
				fmt.Println("Analisis fallido. Proba de nuevo.")
				logger.Warn("analysis failed", zap.Error(err))
				continue
			}
			destination, err := nav.RouteSingle(&result)
			if err != nil {
				fmt.Println("Analisis fallido. Proba de nuevo.")
				continue
			}
			printResult(*destination.Result)
			maybeDownloadAudio(ctx, reader, client, result)

		case "3":
			original, err := promptCard(reader, "Ruta de tu tarjeta: ")
			if err != nil {
				fmt.Println("No pude leer la imagen:", err)
				continue
			}
			contender, err := promptCard(reader, "Ruta de la tarjeta rival: ")
			if err != nil {
				fmt.Println("No pude leer la imagen:", err)
				continue
			}
			destination, err := analyzer.Duel(ctx, original, contender)
			if err != nil {
				fmt.Println("Batalla fallida. Proba de nuevo.")
				logger.Warn("duel failed", zap.Error(err))
				continue
			}
			printBattle(destination)

		case "4":
			runPhasedBattle(ctx, reader, analyzer, battles, logger)

		case "5":
			body, err := client.Voices(ctx)
			if err != nil {
				fmt.Println("No pude listar las voces.")
				continue
			}
			fmt.Println(string(body))

		case "Q":
			return

		default:
			fmt.Println("Seleccion invalida.")
		}
	}
}

// runPhasedBattle recorre el sub-flujo completo: challenger, contender y
// resolucion explicita, con reemplazo de tarjetas antes de resolver.
func runPhasedBattle(ctx context.Context, reader *bufio.Reader, analyzer *service.AnalyzeService, battles *service.BattleService, logger *zap.Logger) {
	session, err := battles.Start(ctx)
	if err != nil {
		fmt.Println("No pude iniciar la batalla.")
		return
	}

	for {
		fmt.Printf("\nFase: %s\n", session.Phase)
		fmt.Println("[C] Subir/reemplazar challenger")
		fmt.Println("[O] Subir/reemplazar contender")
		fmt.Println("[R] Resolver")
		fmt.Println("[X] Abandonar")
		fmt.Print("Seleccion: ")

		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToUpper(choice))

		switch choice {
		case "C", "O":
			card, err := promptCard(reader, "Ruta de la imagen: ")
			if err != nil {
				fmt.Println("No pude leer la imagen:", err)
				continue
			}
			result, err := analyzer.Analyze(ctx, card)
			if err != nil {
				fmt.Println("Analisis fallido. Proba de nuevo.")
				logger.Warn("battle slot analysis failed", zap.Error(err))
				continue
			}
			if choice == "C" {
				session, err = battles.SetChallenger(ctx, session.ID, result)
			} else {
				session, err = battles.SetContender(ctx, session.ID, result)
			}
			if err != nil {
				fmt.Println("No pude guardar la tarjeta:", err)
				continue
			}
			fmt.Printf("Tarjeta cargada: score %.1f (%s)\n", result.PsychoScore, result.CardQuality)

		case "R":
			resolved, err := battles.Resolve(ctx, session.ID)
			if err != nil {
				fmt.Println("Todavia no se puede resolver:", err)
				continue
			}
			printBattle(*resolved.Outcome)
			return

		case "X":
			return

		default:
			fmt.Println("Seleccion invalida.")
		}
	}
}

func promptCard(reader *bufio.Reader, prompt string) (domain.CardImage, error) {
	fmt.Print(prompt)
	path, _ := reader.ReadString('\n')
	path = strings.TrimSpace(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CardImage{}, err
	}
	return domain.CardImage{
		Name: filepath.Base(path),
		Data: data,
	}, nil
}

func printResult(result domain.AnalysisResult) {
	narrative := service.NarrativeFor(result.PsychoScore)
	fmt.Println("\n========== THE VERDICT ==========")
	fmt.Printf("Score: %.1f / 10 (%s)\n", result.PsychoScore, result.CardQuality)
	fmt.Printf("\"%s\"\n\n", narrative.Quote)
	fmt.Println(result.CritiqueText)
	fmt.Println()
	fmt.Println("Tipografia:", service.AttributeOrPlaceholder(result.Typography, "fontFamily"))
	fmt.Println("Jerarquia:", service.AttributeOrPlaceholder(result.Typography, "hierarchy"))
	fmt.Println("Paleta:", service.AttributeOrPlaceholder(result.ColorScheme, "palette"))
	fmt.Println("Material:", result.MaterialImpression)
	fmt.Println("Layout:", result.LayoutQuality)
	fmt.Println("=================================")
}

func printBattle(destination domain.Destination) {
	payload := destination.Battle
	if payload == nil {
		return
	}
	fmt.Println("\n========== BATTLE ==========")
	switch {
	case payload.Tie:
		fmt.Println("EMPATE. El empate favorece al challenger.")
	case destination.Screen == domain.ScreenVictory:
		fmt.Println("VICTORIA")
	default:
		fmt.Println("DERROTA")
	}
	fmt.Printf("Tu tarjeta:   %.1f (%s)\n", payload.Self.PsychoScore, payload.Self.CardQuality)
	fmt.Printf("La rival:     %.1f (%s)\n", payload.Opponent.PsychoScore, payload.Opponent.CardQuality)
	if payload.Narrative.Announcement != "" {
		fmt.Println(payload.Narrative.Announcement)
	}
	if payload.Narrative.WinnerReasoning != "" {
		fmt.Println(payload.Narrative.WinnerReasoning)
	}
	fmt.Println("============================")
}

func maybeDownloadAudio(ctx context.Context, reader *bufio.Reader, client backend.Client, result domain.AnalysisResult) {
	if !result.HasAudio() {
		return
	}
	fmt.Print("Hay audio de la critica. ¿Descargar? [s/N]: ")
	choice, _ := reader.ReadString('\n')
	if !strings.EqualFold(strings.TrimSpace(choice), "s") {
		return
	}

	data, _, err := client.FetchAudio(ctx, result.AudioReference)
	if err != nil {
		fmt.Println("No pude descargar el audio:", err)
		return
	}
	out := "critique.mp3"
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Println("No pude guardar el audio:", err)
		return
	}
	fmt.Println("Audio guardado en", out)
}
