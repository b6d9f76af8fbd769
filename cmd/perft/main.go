// Command perft counts legal move sequences from a position, splitting the
// root moves across goroutines.
//
//	perft -game assets/rules/capablanca.yaml -depth 3
//	perft -depth 4 -board "4k3/8/8/8/8/8/8/4K2R"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/rules"
)

func main() {
	gameFile := flag.String("game", "", "ruleset YAML file (default: bundled standard chess)")
	depth := flag.Int("depth", 3, "search depth in plies")
	boardText := flag.String("board", "", "start position in board notation (default: the ruleset's)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel root moves")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(*gameFile, *boardText, *depth, *workers); err != nil {
		log.Fatal().Err(err).Msg("perft")
	}
}

func run(gameFile, boardText string, depth, workers int) error {
	if depth < 1 {
		return fmt.Errorf("depth must be at least 1, got %d", depth)
	}
	var (
		rs  *rules.Ruleset
		err error
	)
	if gameFile == "" {
		rs, err = rules.Default()
	} else {
		rs, err = rules.LoadFile(gameFile)
	}
	if err != nil {
		return err
	}

	board := rs.NewBoard()
	if boardText != "" {
		if board, err = logic.ParseBoard(boardText); err != nil {
			return err
		}
		if err := board.Validate(rs.Pieces); err != nil {
			return err
		}
	}

	start := time.Now()
	// Extension hooks are ignored, as in logic.Perft.
	root, _ := logic.LegalMoves(rs.Colors[0], rs.Pieces, board, nil)
	counts, err := divide(context.Background(), rs, board, root, depth, workers)
	if err != nil {
		return err
	}

	var total uint64
	for i, m := range root {
		fmt.Printf("%v: %d\n", m, counts[i])
		total += counts[i]
	}
	elapsed := time.Since(start)
	fmt.Printf("\n%s depth %d: %d nodes in %v", rs.Name, depth, total, elapsed.Round(time.Millisecond))
	if s := elapsed.Seconds(); s > 0 {
		fmt.Printf(" (%.0f nps)", float64(total)/s)
	}
	fmt.Println()
	return nil
}

// divide counts the subtree below each root move; counts[i] belongs to
// root[i]. Each worker plays on its own board clone.
func divide(ctx context.Context, rs *rules.Ruleset, board *logic.Board, root []logic.GameMove, depth, workers int) ([]uint64, error) {
	counts := make([]uint64, len(root))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	next := logic.NextColor(rs.Colors, rs.Colors[0])
	for i, m := range root {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := board.Clone()
			if _, err := b.ApplyMove(m); err != nil {
				return fmt.Errorf("root move %v: %w", m, err)
			}
			counts[i] = logic.Perft(depth-1, next, rs.Colors, rs.Pieces, b)
			return nil
		})
	}
	return counts, g.Wait()
}
