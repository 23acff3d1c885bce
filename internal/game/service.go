package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
	"github.com/aaronzipp/coup-online/internal/render"
	"github.com/aaronzipp/coup-online/internal/store"
)

// SnapshotStore persists lobbies between restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	LoadSnapshot(ctx context.Context, code string) (*models.Snapshot, error)
	DeleteSnapshot(ctx context.Context, code string) error
	ListSnapshots(ctx context.Context) ([]*models.Snapshot, error)
}

// Update is what the service hands to the broadcaster after a committed
// change. Session is an unmasked copy; masking is the broadcaster's job.
type Update struct {
	Event   string
	Message string
	Session *models.Session
	Pending *render.PendingSummary
	Lobby   *render.LobbyView
}

// Broadcaster fans updates out to a lobby's subscribers. Delivery is best effort.
type Broadcaster interface {
	Publish(lobby *models.Lobby, u Update)
}

// Event names carried by updates.
const (
	EventLobby  = "lobby"
	EventState  = "state"
	EventClosed = "closed"
)

// Result is returned by the game operations.
type Result struct {
	Message string           `json:"message"`
	State   *render.GameView `json:"state"`
}

// Service owns every lobby and serializes work per lobby through its lock.
type Service struct {
	lobbies     *store.LobbyStore
	snapshots   SnapshotStore
	broadcaster Broadcaster
	log         logrus.FieldLogger
	now         func() time.Time
	window      time.Duration
	machine     *Machine

	rngMu sync.Mutex
	rng   Rand
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshotStore enables write-through persistence.
func WithSnapshotStore(s SnapshotStore) Option { return func(svc *Service) { svc.snapshots = s } }

// WithBroadcaster sets who receives committed updates.
func WithBroadcaster(b Broadcaster) Option { return func(svc *Service) { svc.broadcaster = b } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(svc *Service) { svc.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// WithRand replaces the shuffling and seating source.
func WithRand(r Rand) Option { return func(svc *Service) { svc.rng = r } }

// WithReactionWindow overrides ReactionWindow.
func WithReactionWindow(d time.Duration) Option { return func(svc *Service) { svc.window = d } }

// NewService builds a service over lobbies.
func NewService(lobbies *store.LobbyStore, opts ...Option) *Service {
	svc := &Service{
		lobbies: lobbies,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		window:  ReactionWindow,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.machine = NewMachine(svc.now, svc.window)
	return svc
}

// OpenLobbies lists the rooms that can still be joined, by code.
func (s *Service) OpenLobbies() []*render.LobbyView {
	var views []*render.LobbyView
	for _, code := range s.lobbies.Codes() {
		l, ok := s.lobbies.Get(code)
		if !ok {
			continue
		}
		l.RLock()
		if l.Status != models.StatusStarted && len(l.Members) < MaxPlayers {
			views = append(views, render.NewLobbyView(l, MinPlayers))
		}
		l.RUnlock()
	}
	return views
}

// Lobby returns the live lobby for code.
func (s *Service) Lobby(code string) (*models.Lobby, error) {
	l, ok := s.lobbies.Get(code)
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "room %s not found", code)
	}
	return l, nil
}

func (s *Service) intN(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

// CreateLobby opens a waiting lobby hosted by hostID.
func (s *Service) CreateLobby(ctx context.Context, hostID, hostName string) (*render.LobbyView, error) {
	if hostID == "" {
		return nil, apperr.New(apperr.InvalidAction, "a player id is required")
	}
	var lobby *models.Lobby
	for {
		lobby = models.NewLobby(NewRoomCode(), hostID)
		if s.lobbies.Add(lobby) {
			break
		}
	}

	lobby.Lock()
	lobby.AddMember(&models.Member{ID: hostID, Name: displayName(hostName, hostID)})
	if err := s.persist(ctx, lobby); err != nil {
		lobby.Unlock()
		s.lobbies.Delete(lobby.Code)
		return nil, err
	}
	view := render.NewLobbyView(lobby, MinPlayers)
	lobby.Unlock()

	s.log.WithFields(logrus.Fields{"room": lobby.Code, "player": hostID}).Info("lobby created")
	return view, nil
}

// JoinLobby seats playerID in a lobby that has not started. Joining twice is a no-op.
func (s *Service) JoinLobby(ctx context.Context, code, playerID, name string) (*render.LobbyView, error) {
	return s.lobbyOp(ctx, code, "joined", func(l *models.Lobby) error {
		if l.Member(playerID) != nil {
			return nil
		}
		if l.Status == models.StatusStarted {
			return apperr.New(apperr.InvalidAction, "game in progress")
		}
		if len(l.Members) >= MaxPlayers {
			return apperr.Newf(apperr.InvalidAction, "the room is full (%d players)", MaxPlayers)
		}
		l.AddMember(&models.Member{ID: playerID, Name: displayName(name, playerID)})
		return nil
	}, playerID)
}

// LeaveLobby removes playerID. In a running game the player forfeits;
// a host leaving hands the room to the next member and an empty room closes.
func (s *Service) LeaveLobby(ctx context.Context, code, playerID string) (*render.LobbyView, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}

	lobby.Lock()
	if lobby.Member(playerID) == nil {
		lobby.Unlock()
		return nil, apperr.Newf(apperr.NotFound, "player %s is not in room %s", playerID, code)
	}
	var msg string
	err = s.commit(ctx, lobby, func() error {
		if lobby.Status == models.StatusStarted && lobby.Session != nil && lobby.Session.Player(playerID) != nil {
			next := lobby.Session.Clone()
			m, err := Forfeit(next, playerID)
			if err != nil {
				return err
			}
			msg = m
			lobby.Session = next
			s.settle(lobby)
		}
		lobby.RemoveMember(playerID)
		if lobby.Host == playerID && len(lobby.Members) > 0 {
			lobby.Host = lobby.Members[0].ID
		}
		return nil
	})
	if err != nil {
		lobby.Unlock()
		return nil, err
	}

	if len(lobby.Members) == 0 {
		lobby.Unlock()
		s.drop(ctx, lobby)
		s.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("last player left, lobby closed")
		return nil, nil
	}
	view := render.NewLobbyView(lobby, MinPlayers)
	update := s.stateUpdate(lobby, EventState, msg)
	lobby.Unlock()

	s.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("player left")
	s.publish(lobby, Update{Event: EventLobby, Lobby: view})
	if msg != "" {
		s.publish(lobby, update)
	}
	return view, nil
}

// StartGame deals a new session. Only the host may start, with at least MinPlayers.
func (s *Service) StartGame(ctx context.Context, code, playerID string) (*Result, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}

	lobby.Lock()
	err = s.commit(ctx, lobby, func() error {
		if lobby.Host != playerID {
			return apperr.New(apperr.WrongResponder, "only the host can start the game")
		}
		if lobby.Status == models.StatusStarted {
			return apperr.New(apperr.InvalidAction, "game already in progress")
		}
		if len(lobby.Members) < MinPlayers {
			return apperr.Newf(apperr.InvalidAction, "need at least %d players", MinPlayers)
		}
		sess, err := s.deal(lobby.Members)
		if err != nil {
			return err
		}
		lobby.Session = sess
		lobby.Status = models.StatusStarted
		return nil
	})
	if err != nil {
		lobby.Unlock()
		return nil, err
	}
	first := CurrentPlayer(lobby.Session)
	msg := "The game begins. " + first.Name + " goes first."
	update := s.stateUpdate(lobby, EventState, msg)
	view := s.view(lobby.Session, playerID)
	lobbyView := render.NewLobbyView(lobby, MinPlayers)
	lobby.Unlock()

	s.log.WithFields(logrus.Fields{"room": code, "players": len(update.Session.Players), "first": first.ID}).Info("game started")
	s.publish(lobby, Update{Event: EventLobby, Lobby: lobbyView})
	s.publish(lobby, update)
	return &Result{Message: msg, State: view}, nil
}

func (s *Service) deal(members []*models.Member) (*models.Session, error) {
	s.rngMu.Lock()
	deck := NewDeck(s.rng)
	s.rngMu.Unlock()

	hands, deck, err := Deal(deck, len(members))
	if err != nil {
		return nil, err
	}
	sess := &models.Session{
		ID:    uuid.NewString(),
		Deck:  deck,
		Trash: []models.Card{},
		Turn:  s.intN(len(members)),
	}
	for i, m := range members {
		sess.Players = append(sess.Players, models.NewPlayer(m.ID, m.Name, StartingCoins, hands[i]))
	}
	return sess, nil
}

// RestartGame returns a finished lobby to waiting. Host only.
func (s *Service) RestartGame(ctx context.Context, code, playerID string) (*render.LobbyView, error) {
	return s.lobbyOp(ctx, code, "restarted", func(l *models.Lobby) error {
		if l.Host != playerID {
			return apperr.New(apperr.WrongResponder, "only the host can restart the game")
		}
		if l.Status == models.StatusStarted {
			return apperr.New(apperr.InvalidAction, "the current game has not finished")
		}
		l.Session = nil
		l.Status = models.StatusWaiting
		return nil
	}, playerID)
}

// CloseLobby deletes the lobby and its snapshot. Host only.
func (s *Service) CloseLobby(ctx context.Context, code, playerID string) error {
	lobby, err := s.Lobby(code)
	if err != nil {
		return err
	}
	lobby.RLock()
	isHost := lobby.Host == playerID
	lobby.RUnlock()
	if !isHost {
		return apperr.New(apperr.WrongResponder, "only the host can close the room")
	}

	s.publish(lobby, Update{Event: EventClosed, Message: "The host closed the room."})
	s.drop(ctx, lobby)
	s.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("lobby closed")
	return nil
}

func (s *Service) drop(ctx context.Context, lobby *models.Lobby) {
	s.lobbies.Delete(lobby.Code)
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.DeleteSnapshot(ctx, lobby.Code); err != nil {
		s.log.WithError(err).WithField("room", lobby.Code).Warn("delete snapshot failed")
	}
}

// SubmitAction starts a top-level action for actorID.
func (s *Service) SubmitAction(ctx context.Context, code, actorID string, kind models.ActionKind, targetID string) (*Result, error) {
	log := s.log.WithFields(logrus.Fields{"room": code, "player": actorID, "action": kind})
	return s.play(ctx, code, actorID, log, func(sess *models.Session) (string, error) {
		return s.machine.Submit(sess, actorID, kind, targetID)
	})
}

// SubmitReaction answers the pending action of the room.
func (s *Service) SubmitReaction(ctx context.Context, code, responderID string, r Reaction) (*Result, error) {
	log := s.log.WithFields(logrus.Fields{"room": code, "player": responderID, "reaction": r.Kind})
	return s.play(ctx, code, responderID, log, func(sess *models.Session) (string, error) {
		return s.machine.React(sess, responderID, r)
	})
}

// play runs step against a clone of the session and swaps the clone in only
// when step succeeds and the result is persisted.
func (s *Service) play(ctx context.Context, code, playerID string, log logrus.FieldLogger, step func(*models.Session) (string, error)) (*Result, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}

	lobby.Lock()
	if lobby.Session == nil {
		lobby.Unlock()
		return nil, apperr.Newf(apperr.NotFound, "no game running in room %s", code)
	}
	var msg string
	var stepErr error
	err = s.commit(ctx, lobby, func() error {
		next := lobby.Session.Clone()
		msg, stepErr = step(next)
		if stepErr != nil && !errors.Is(stepErr, apperr.ErrWindowExpired) {
			return stepErr
		}
		lobby.Session = next
		s.settle(lobby)
		return nil
	})
	if err != nil {
		lobby.Unlock()
		log.WithError(err).Debug("rejected")
		return nil, err
	}
	if stepErr != nil {
		msg = "The reaction window closed; the pending action was discarded."
	}
	update := s.stateUpdate(lobby, EventState, msg)
	view := s.view(lobby.Session, playerID)
	var finished *render.LobbyView
	if lobby.Session.GameOver {
		finished = render.NewLobbyView(lobby, MinPlayers)
	}
	lobby.Unlock()

	if stepErr != nil {
		log.WithError(stepErr).Info("pending action expired")
	} else {
		log.Info(msg)
	}
	s.publish(lobby, update)
	if finished != nil {
		s.publish(lobby, Update{Event: EventLobby, Lobby: finished})
	}
	if stepErr != nil {
		return nil, stepErr
	}
	return &Result{Message: msg, State: view}, nil
}

// settle records the result of a session that just ended (must be called with lock held).
func (s *Service) settle(lobby *models.Lobby) {
	sess := lobby.Session
	if sess == nil || !sess.GameOver || lobby.Status != models.StatusStarted {
		return
	}
	lobby.Status = models.StatusFinished
	for _, p := range sess.Players {
		score, ok := lobby.Scores[p.ID]
		if !ok {
			score = &models.PlayerScore{}
			lobby.Scores[p.ID] = score
		}
		if p.ID == sess.Winner {
			score.GamesWon++
		} else {
			score.GamesLost++
		}
	}
	s.log.WithFields(logrus.Fields{"room": lobby.Code, "winner": sess.Winner}).Info("game over")
}

// View returns the session of a room masked for viewer.
func (s *Service) View(code, viewer string) (*render.GameView, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}
	lobby.RLock()
	defer lobby.RUnlock()
	if lobby.Session == nil {
		return nil, apperr.Newf(apperr.NotFound, "no game running in room %s", code)
	}
	return s.view(lobby.Session, viewer), nil
}

// LobbyView returns the public lobby state.
func (s *Service) LobbyView(code string) (*render.LobbyView, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}
	lobby.RLock()
	defer lobby.RUnlock()
	return render.NewLobbyView(lobby, MinPlayers), nil
}

// Snapshot returns a deep copy of a room's persistent state.
func (s *Service) Snapshot(code string) (*models.Snapshot, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}
	lobby.RLock()
	defer lobby.RUnlock()
	return lobby.Snapshot(), nil
}

// Restore loads every stored snapshot into the live table.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.snapshots == nil {
		return 0, nil
	}
	snaps, err := s.snapshots.ListSnapshots(ctx)
	if err != nil {
		return 0, err
	}
	for _, snap := range snaps {
		s.lobbies.Set(snap.Code, models.LobbyFromSnapshot(snap))
	}
	s.log.WithField("rooms", len(snaps)).Info("restored lobbies")
	return len(snaps), nil
}

// lobbyOp runs a lobby-level change and broadcasts the new lobby view.
func (s *Service) lobbyOp(ctx context.Context, code, what string, fn func(*models.Lobby) error, playerID string) (*render.LobbyView, error) {
	lobby, err := s.Lobby(code)
	if err != nil {
		return nil, err
	}
	lobby.Lock()
	if err := s.commit(ctx, lobby, func() error { return fn(lobby) }); err != nil {
		lobby.Unlock()
		return nil, err
	}
	view := render.NewLobbyView(lobby, MinPlayers)
	lobby.Unlock()

	s.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("lobby " + what)
	s.publish(lobby, Update{Event: EventLobby, Lobby: view})
	return view, nil
}

// commit applies fn and persists the lobby; on any failure the lobby is put
// back as it was (must be called with lock held).
func (s *Service) commit(ctx context.Context, lobby *models.Lobby, fn func() error) error {
	before := lobby.Snapshot()
	if err := fn(); err != nil {
		lobby.Restore(before)
		return err
	}
	if err := s.persist(ctx, lobby); err != nil {
		lobby.Restore(before)
		return err
	}
	return nil
}

func (s *Service) persist(ctx context.Context, lobby *models.Lobby) error {
	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.SaveSnapshot(ctx, lobby.Snapshot()); err != nil {
		s.log.WithError(err).WithField("room", lobby.Code).Error("persist lobby")
		return apperr.Wrap(apperr.Internal, "could not save the room", err)
	}
	return nil
}

func (s *Service) view(sess *models.Session, viewer string) *render.GameView {
	v := render.MaskSession(sess, viewer)
	v.Pending = render.SummarizePending(sess.Pending, s.now(), s.window)
	return v
}

// stateUpdate captures the session for broadcasting (must be called with lock held).
func (s *Service) stateUpdate(lobby *models.Lobby, event, msg string) Update {
	u := Update{Event: event, Message: msg}
	if lobby.Session != nil {
		u.Session = lobby.Session.Clone()
		u.Pending = render.SummarizePending(lobby.Session.Pending, s.now(), s.window)
	}
	return u
}

func (s *Service) publish(lobby *models.Lobby, u Update) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(lobby, u)
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	if len(id) > 8 {
		return "Guest-" + id[:8]
	}
	return "Guest-" + id
}
