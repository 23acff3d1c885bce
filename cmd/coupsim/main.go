// Command coupsim plays bot games of Coup through the game service and prints them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/sirupsen/logrus"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/game"
	"github.com/aaronzipp/coup-online/internal/render"
	"github.com/aaronzipp/coup-online/internal/store"
)

// maxSteps stops a game that somehow never ends.
const maxSteps = 5000

var botNames = []string{"Ada", "Bram", "Cleo", "Dara", "Emil", "Fenna"}

func main() {
	players := flag.Int("players", 4, "number of bots (2-6)")
	games := flag.Int("games", 1, "number of games to play")
	seed := flag.Uint64("seed", 1, "random seed")
	quiet := flag.Bool("quiet", false, "only print results")
	flag.Parse()

	if *players < game.MinPlayers || *players > game.MaxPlayers {
		fmt.Fprintf(os.Stderr, "players must be between %d and %d\n", game.MinPlayers, game.MaxPlayers)
		os.Exit(2)
	}

	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("C", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("oup", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	sim := newSimulator(*players, *seed, !*quiet)
	if err := sim.run(context.Background(), *games); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

type simulator struct {
	svc     *game.Service
	rng     *rand.Rand
	bots    []string
	verbose bool
}

func newSimulator(players int, seed uint64, verbose bool) *simulator {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return &simulator{
		svc: game.NewService(store.NewLobbyStore(),
			game.WithLogger(log),
			game.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		),
		rng:     rand.New(rand.NewPCG(seed, seed)),
		bots:    botNames[:players],
		verbose: verbose,
	}
}

func (s *simulator) run(ctx context.Context, games int) error {
	host := s.bots[0]
	lv, err := s.svc.CreateLobby(ctx, host, host)
	if err != nil {
		return err
	}
	code := lv.Code
	for _, b := range s.bots[1:] {
		if _, err := s.svc.JoinLobby(ctx, code, b, b); err != nil {
			return err
		}
	}
	pterm.Info.Printfln("Room %s with %d bots", code, len(s.bots))

	for i := 1; i <= games; i++ {
		if i > 1 {
			if _, err := s.svc.RestartGame(ctx, code, host); err != nil {
				return err
			}
		}
		pterm.DefaultSection.Printfln("Game %d", i)
		if err := s.play(ctx, code, host); err != nil {
			return err
		}
	}

	lv, err = s.svc.LobbyView(code)
	if err != nil {
		return err
	}
	return scoreTable(lv.Scores).Render()
}

func (s *simulator) play(ctx context.Context, code, host string) error {
	res, err := s.svc.StartGame(ctx, code, host)
	if err != nil {
		return err
	}
	s.say(res.Message)

	for step := 0; step < maxSteps; step++ {
		snap, err := s.svc.Snapshot(code)
		if err != nil {
			return err
		}
		sess := snap.Session
		if sess.GameOver {
			if winner := sess.Player(sess.Winner); winner != nil {
				pterm.Success.Printfln("%s wins after %d moves", winner.Name, step)
			} else {
				pterm.Warning.Printfln("no one survived after %d moves", step)
			}
			return nil
		}

		mv := game.RandomMove(sess, s.rng)
		if mv.Reaction != nil {
			res, err = s.svc.SubmitReaction(ctx, code, mv.PlayerID, *mv.Reaction)
		} else {
			res, err = s.svc.SubmitAction(ctx, code, mv.PlayerID, mv.Action, mv.TargetID)
		}
		if err != nil {
			if errors.Is(err, apperr.ErrWindowExpired) {
				pterm.Warning.Println("reaction window closed")
				continue
			}
			return fmt.Errorf("%s: %w", mv.PlayerID, err)
		}
		s.say(res.Message)
	}
	return fmt.Errorf("game in room %s did not finish after %d moves", code, maxSteps)
}

func (s *simulator) say(msg string) {
	if s.verbose && msg != "" {
		pterm.Println(msg)
	}
}

func scoreTable(rows []render.ScoreRow) *pterm.TablePrinter {
	data := pterm.TableData{{"Player", "Won", "Lost"}}
	for _, r := range rows {
		data = append(data, []string{r.Name, strconv.Itoa(r.GamesWon), strconv.Itoa(r.GamesLost)})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data)
}
