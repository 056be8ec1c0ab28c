package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/Kanty753/projet-reseau/application"
	"github.com/Kanty753/projet-reseau/domain/undercover"
)

// gameUI is the terminal presentation of the game. Feed events are printed as
// they arrive; control-flow events are forwarded on channels so the play loop
// can prompt the local player at the right moments.
type gameUI struct {
	ctrl *application.Controller

	started chan undercover.Role
	turns   chan string
	phases  chan undercover.Phase
	ended   chan string
	lost    chan struct{}
}

func newGameUI(ctrl *application.Controller) *gameUI {
	return &gameUI{
		ctrl:    ctrl,
		started: make(chan undercover.Role, 4),
		turns:   make(chan string, 16),
		phases:  make(chan undercover.Phase, 16),
		ended:   make(chan string, 4),
		lost:    make(chan struct{}, 1),
	}
}

func (ui *gameUI) OnPlayersUpdated(players []undercover.Player) {
	session, ok := ui.ctrl.Session()
	if !ok || session.Phase != undercover.PhaseLobby {
		return
	}
	names := ""
	for i, p := range players {
		if i > 0 {
			names += ", "
		}
		names += p.Name
	}
	pterm.Info.Printfln("Players (%d/%d): %s", len(players), session.MaxPlayers, names)
}

func (ui *gameUI) OnGameStarted(role undercover.Role, _ string) {
	select {
	case ui.started <- role:
	default:
	}
}

func (ui *gameUI) OnPhaseChanged(phase undercover.Phase) {
	select {
	case ui.phases <- phase:
	default:
	}
}

func (ui *gameUI) OnMessageReceived(msg undercover.Message) {
	switch msg.Kind {
	case undercover.KindChat:
		pterm.Println(msg.DisplayText())
	case undercover.KindWord:
		pterm.FgLightCyan.Println(msg.DisplayText())
	case undercover.KindElimination, undercover.KindVictory:
		pterm.FgLightRed.Println(msg.DisplayText())
	case undercover.KindGuess:
		pterm.FgLightYellow.Println(msg.DisplayText())
	default:
		pterm.FgGray.Println(msg.DisplayText())
	}
}

func (ui *gameUI) OnTurnChanged(speakerID string, remainingSeconds int, _ []string) {
	session, ok := ui.ctrl.Session()
	if ok {
		if speaker := session.Player(speakerID); speaker != nil {
			pterm.Info.Printfln("It is %s's turn (%ds).", speaker.Name, remainingSeconds)
		}
	}
	select {
	case ui.turns <- speakerID:
	default:
	}
}

func (ui *gameUI) OnTimerSync(remaining int) {
	if remaining <= 5 || remaining%30 == 0 {
		pterm.FgGray.Printfln("... %ds left", remaining)
	}
}

func (ui *gameUI) OnGameEnded(message string) {
	select {
	case ui.ended <- message:
	default:
	}
}

func (ui *gameUI) OnConnectionStatus(connected bool, reason string) {
	if connected {
		pterm.Success.Println(reason)
		return
	}
	pterm.Warning.Println(reason)
	select {
	case ui.lost <- struct{}{}:
	default:
	}
}

func renderLobby(ctrl *application.Controller) {
	session, ok := ctrl.Session()
	if !ok {
		return
	}
	local, _ := ctrl.LocalPlayer()
	renderRoster(session.Players, local.ID, false)
}

func renderRoster(players []*undercover.Player, localID string, revealRoles bool) {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var panels []pterm.Panel
	for _, p := range players {
		status := pterm.LightGreen("Alive")
		if !p.Alive {
			status = pterm.LightRed("Eliminated")
		}
		title := p.Name
		if p.IsHost {
			title += " (host)"
		}
		if p.ID == localID {
			title = pterm.LightCyan(title)
		}
		body := status
		if revealRoles {
			body = fmt.Sprintf("%s\n%s", status, p.Role.Display())
		}
		panels = append(panels, pterm.Panel{Data: pbox.WithTitle(title).WithTitleTopLeft().Sprint(body)})
	}
	pterm.DefaultPanel.WithPanels([][]pterm.Panel{panels}).Render()
}

func renderRole(role undercover.Role, word string) {
	pbox := pterm.DefaultBox.WithHorizontalPadding(10).WithTopPadding(1).WithBottomPadding(1)
	if role == undercover.RoleImpostor {
		pterm.Println(pbox.
			WithTitle(pterm.LightRed("|YOUR ROLE|")).
			WithTitleTopCenter().
			Sprint("You are the IMPOSTOR!\nBlend in and find the secret word."))
		return
	}
	pterm.Println(pbox.
		WithTitle(pterm.LightGreen("|YOUR ROLE|")).
		WithTitleTopCenter().
		Sprintf("You are a citizen.\nThe secret word is: %s", pterm.LightCyan(word)))
}

func renderResult(message string) {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	pterm.Println(pbox.
		WithTitle(pterm.LightYellow("|GAME OVER|")).
		WithTitleTopCenter().
		Sprint(message))
}
