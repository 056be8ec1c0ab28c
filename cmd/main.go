package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Kanty753/projet-reseau/application"
	"github.com/Kanty753/projet-reseau/discovery"
	"github.com/Kanty753/projet-reseau/domain/undercover"
)

const (
	defaultGamePort   = 5000
	defaultMaxPlayers = 8
)

func main() {
	// Optional .env with UNDERCOVER_NAME, UNDERCOVER_PORT, UNDERCOVER_SESSION
	// and UNDERCOVER_MAX_PLAYERS; prompts fall back to interactive input.
	_ = godotenv.Load()

	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Under", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("cover", pterm.FgRed.ToStyle()),
	).Render()

	name := os.Getenv("UNDERCOVER_NAME")
	if name == "" {
		name, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your username").Show()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		pterm.Error.Println("A username is required.")
		os.Exit(1)
	}
	pterm.Println()
	pterm.Info.Printfln("Your username: %s", name)

	localIP, err := localIPv4()
	if err != nil {
		logger.Error("could not determine local address", "error", err.Error())
		panic(err)
	}

	for {
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("What do you want to do?").
			WithOptions([]string{"Host a session", "Join a session", "Quit"}).
			Show()
		switch choice {
		case "Host a session":
			runHost(logger, name, localIP)
		case "Join a session":
			runJoin(logger, name, localIP)
		default:
			pterm.Info.Println("Bye!")
			return
		}
	}
}

func runHost(logger *slog.Logger, name, localIP string) {
	sessionName := os.Getenv("UNDERCOVER_SESSION")
	if sessionName == "" {
		sessionName, _ = pterm.DefaultInteractiveTextInput.
			WithDefaultText("Session name").
			WithDefaultValue(name + "'s game").
			Show()
	}
	port := envInt("UNDERCOVER_PORT", defaultGamePort)
	maxPlayers := envInt("UNDERCOVER_MAX_PLAYERS", defaultMaxPlayers)

	ctrl := application.NewController(logger)
	ui := newGameUI(ctrl)
	ctrl.AddListener(ui)

	if err := ctrl.CreateServer(name, sessionName, localIP, port, maxPlayers); err != nil {
		pterm.Error.Printfln("Could not create the session: %v", err)
		return
	}
	defer ctrl.Shutdown()

	joinAddr := fmt.Sprintf("%s:%d", localIP, port)
	pterm.Success.Printfln("Session %q created. Players can join at %s", sessionName, joinAddr)
	if qr, err := qrcode.New("undercover://"+joinAddr, qrcode.Low); err == nil {
		pterm.Println(qr.ToSmallString(false))
	}

	for {
		renderLobby(ctrl)
		action, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Lobby").
			WithOptions([]string{"Start the game", "Refresh", "Close the session"}).
			Show()
		switch action {
		case "Start the game":
			session, ok := ctrl.Session()
			if !ok || len(session.Players) < undercover.MinPlayersToStart {
				pterm.Warning.Printfln("At least %d players are needed.", undercover.MinPlayersToStart)
				continue
			}
			ctrl.StartGame()
			playLoop(ctrl, ui)
			return
		case "Refresh":
			continue
		default:
			return
		}
	}
}

func runJoin(logger *slog.Logger, name, localIP string) {
	ctrl := application.NewController(logger)
	ui := newGameUI(ctrl)
	ctrl.AddListener(ui)

	var mu sync.Mutex
	var found []discovery.Announcement
	err := ctrl.StartDiscovery(func(list []discovery.Announcement) {
		mu.Lock()
		found = list
		mu.Unlock()
	})
	if err != nil {
		pterm.Warning.Printfln("Session discovery unavailable: %v", err)
	} else {
		spinner, _ := pterm.DefaultSpinner.Start("Looking for sessions on the local network...")
		time.Sleep(3 * time.Second)
		spinner.Success()
	}

	mu.Lock()
	sessions := append([]discovery.Announcement(nil), found...)
	mu.Unlock()

	options := make([]string, 0, len(sessions)+2)
	for _, a := range sessions {
		options = append(options, a.Display())
	}
	options = append(options, "Enter an address manually", "Back")

	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Pick a session").
		WithOptions(options).
		Show()

	var target discovery.Announcement
	switch choice {
	case "Back":
		ctrl.Shutdown()
		return
	case "Enter an address manually":
		addr, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Host address (ip or ip:port)").
			Show()
		host, portStr, err := splitHostPort(strings.TrimSpace(addr), defaultGamePort)
		if err != nil {
			pterm.Error.Printfln("Invalid address %q: %v", addr, err)
			ctrl.Shutdown()
			return
		}
		guessed, err := guessIpAddress(net.ParseIP(localIP).To4(), host)
		if err != nil {
			pterm.Error.Printfln("Invalid address %q: %v", addr, err)
			ctrl.Shutdown()
			return
		}
		port, _ := strconv.Atoi(portStr)
		target = discovery.Announcement{HostIP: guessed.String(), HostPort: port, MaxPlayers: defaultMaxPlayers}
	default:
		for _, a := range sessions {
			if a.Display() == choice {
				target = a
				break
			}
		}
	}

	spinner, _ := pterm.DefaultSpinner.Start("Joining " + target.Addr() + " ...")
	if err := ctrl.Join(name, localIP, target); err != nil {
		spinner.Fail()
		pterm.Error.Printfln("Could not join: %v", err)
		ctrl.Shutdown()
		return
	}
	spinner.Success()
	defer ctrl.Shutdown()

	pterm.Info.Println("Waiting for the host to start the game...")
	playLoop(ctrl, ui)
}

// playLoop drives the in-game screens until the session ends. All game state
// arrives through the listener; the loop only decides when to ask the local
// player for input.
func playLoop(ctrl *application.Controller, ui *gameUI) {
	local, ok := ctrl.LocalPlayer()
	if !ok {
		return
	}
	for {
		select {
		case role := <-ui.started:
			renderRole(role, ctrl.MyWord())
		case speakerID := <-ui.turns:
			if speakerID == local.ID {
				word, _ := pterm.DefaultInteractiveTextInput.
					WithDefaultText(fmt.Sprintf("Your turn! One word (%ds)", undercover.WordTimeSeconds)).
					Show()
				ctrl.SpeakWord(strings.TrimSpace(word))
			}
		case phase := <-ui.phases:
			switch phase {
			case undercover.PhaseDebate:
				promptDebate(ctrl)
			case undercover.PhaseVoting:
				promptVote(ctrl)
			}
		case msg := <-ui.ended:
			renderResult(msg)
			session, ok := ctrl.Session()
			if ok {
				renderRoster(session.Players, local.ID, true)
			}
			return
		case <-ui.lost:
			pterm.Error.Println("Connection to the session was lost.")
			return
		}
	}
}

func promptDebate(ctrl *application.Controller) {
	pterm.Info.Printfln("Debate! You have %d seconds. Empty line to stay quiet.", undercover.DebateTimeSeconds)
	for {
		session, ok := ctrl.Session()
		if !ok || session.Phase != undercover.PhaseDebate {
			return
		}
		line, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Say something").Show()
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		ctrl.SendChat(line)
	}
}

func promptVote(ctrl *application.Controller) {
	local, ok := ctrl.LocalPlayer()
	if !ok || !local.Alive {
		pterm.Info.Println("You are eliminated; watching the vote.")
		return
	}
	session, ok := ctrl.Session()
	if !ok {
		return
	}

	options := []string{}
	byLabel := map[string]string{}
	for _, p := range session.AlivePlayers() {
		if p.ID == local.ID {
			continue
		}
		label := p.Name
		options = append(options, label)
		byLabel[label] = p.ID
	}
	if local.Role == undercover.RoleImpostor {
		options = append(options, "Guess the secret word")
	}
	options = append(options, "Skip")

	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText(fmt.Sprintf("Who is the impostor? (%ds)", undercover.VoteTimeSeconds)).
		WithOptions(options).
		Show()
	switch choice {
	case "Skip":
	case "Guess the secret word":
		guess, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Your guess (wrong = elimination!)").
			Show()
		ctrl.GuessWord(strings.TrimSpace(guess))
	default:
		ctrl.Vote(byLabel[choice])
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		pterm.Warning.Printfln("Ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
