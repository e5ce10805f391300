package services

import (
	"log/slog"
	"slices"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

// UserService keeps one store entry per registered user. There is no
// in-memory aggregate; every mutation is a read-modify-write on the user's
// own key, so two users never contend.
type UserService struct {
	users  *store.Collection[models.User]
	logger *slog.Logger
}

// NewUserService opens the user collection under root and runs the legacy
// single-key migration if needed.
func NewUserService(root string) *UserService {
	s := &UserService{
		users:  store.NewCollection[models.User](root, "v2_user"),
		logger: slog.With("component", "users"),
	}
	s.migrateLegacyUsers(root)
	return s
}

// AddUser upserts a user's subscriptions, device token and app versions.
// Live activities, mutes and explicit games survive the upsert.
func (s *UserService) AddUser(user models.User) {
	prior, ok := s.users.Read(user.ID)
	if ok {
		user.LiveActivities = prior.LiveActivities
		user.MutedGames = prior.MutedGames
		user.ExplicitGames = prior.ExplicitGames
	}
	if err := s.users.Write(user.ID, user); err != nil {
		s.logger.Error("persist user", "user_id", user.ID, "err", err)
	}
}

// Read returns one user's record.
func (s *UserService) Read(userID string) (models.User, bool) {
	return s.users.Read(userID)
}

// StreamAll yields a snapshot of every registered user.
func (s *UserService) StreamAll() []models.User {
	return s.users.ReadAll()
}

// StartLiveActivity registers an activity token for a game, replacing any
// prior entry for the same game.
func (s *UserService) StartLiveActivity(userID, gameUUID, apnToken string) {
	s.mutate(userID, func(u *models.User) {
		u.LiveActivities = slices.DeleteFunc(u.LiveActivities, func(la models.LiveActivity) bool {
			return la.GameUUID == gameUUID
		})
		u.LiveActivities = append(u.LiveActivities, models.LiveActivity{GameUUID: gameUUID, APNToken: apnToken})
	})
	s.logger.Info("live activity started", "user_id", userID, "game_uuid", gameUUID)
}

// EndLiveActivity removes the activity entry for a game.
func (s *UserService) EndLiveActivity(userID, gameUUID string) {
	s.mutate(userID, func(u *models.User) {
		u.LiveActivities = slices.DeleteFunc(u.LiveActivities, func(la models.LiveActivity) bool {
			return la.GameUUID == gameUUID
		})
	})
	s.logger.Info("live activity ended", "user_id", userID, "game_uuid", gameUUID)
}

// RemoveAPNToken nulls a user's device token after APNs rejected it.
func (s *UserService) RemoveAPNToken(userID string) {
	s.mutate(userID, func(u *models.User) {
		u.APNToken = nil
	})
	s.logger.Info("device token removed", "user_id", userID)
}

// RemoveReferencesTo deletes every user's live activities, mutes and
// explicit entries for a game. Called when the game's listener terminates
// for good.
func (s *UserService) RemoveReferencesTo(gameUUID string) {
	for _, user := range s.users.ReadAll() {
		if _, held := user.LiveActivityFor(gameUUID); !held &&
			!slices.Contains(user.MutedGames, gameUUID) &&
			!slices.Contains(user.ExplicitGames, gameUUID) {
			continue
		}
		s.mutate(user.ID, func(u *models.User) {
			u.LiveActivities = slices.DeleteFunc(u.LiveActivities, func(la models.LiveActivity) bool {
				return la.GameUUID == gameUUID
			})
			u.MutedGames = slices.DeleteFunc(u.MutedGames, func(g string) bool { return g == gameUUID })
			u.ExplicitGames = slices.DeleteFunc(u.ExplicitGames, func(g string) bool { return g == gameUUID })
		})
	}
	s.logger.Info("references removed", "game_uuid", gameUUID)
}

func (s *UserService) mutate(userID string, apply func(*models.User)) {
	user, ok := s.users.Read(userID)
	if !ok {
		user = models.User{ID: userID}
	}
	apply(&user)
	if err := s.users.Write(userID, user); err != nil {
		s.logger.Error("persist user", "user_id", userID, "err", err)
	}
}

// migrateLegacyUsers splits the old single-key v1_users list into per-user
// entries. No-op when the legacy collection is absent or the new one is
// already populated.
func (s *UserService) migrateLegacyUsers(root string) {
	legacy := store.NewCollection[[]models.User](root, "v1_users")
	users, ok := legacy.Read("all")
	if !ok || len(users) == 0 {
		return
	}
	migrated := 0
	for _, user := range users {
		if user.ID == "" || s.users.Exists(user.ID) {
			continue
		}
		if err := s.users.Write(user.ID, user); err != nil {
			s.logger.Error("migrate user", "user_id", user.ID, "err", err)
			continue
		}
		migrated++
	}
	if migrated > 0 {
		s.logger.Info("migrated legacy users", "count", migrated)
	}
}
