package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/services"
)

// detailsMaxAge bounds how stale the composed game details may be before
// the handler refreshes them from upstream.
const detailsMaxAge = time.Minute

func (s *Server) getGames(c *gin.Context) {
	season, err := models.ParseSeason(c.Param("season"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown season"})
		return
	}
	raw, ok := s.registry.ReadRaw(season)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown season"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) getGameDetails(c *gin.Context) {
	details, ok := s.details.Read(c.Request.Context(), c.Param("game_uuid"), detailsMaxAge)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) getStandings(c *gin.Context) {
	season, err := models.ParseSeason(c.Param("season"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown season"})
		return
	}
	c.JSON(http.StatusOK, s.standings.ReadAll(season))
}

func (s *Server) getPlayoffs(c *gin.Context) {
	season, err := models.ParseSeason(c.Param("season"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown season"})
		return
	}
	raw, ok := s.playoffs.ReadRaw(season)
	if !ok {
		c.JSON(http.StatusOK, models.Playoffs{})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) getTeams(c *gin.Context) {
	if raw, ok := s.teams.ReadRaw(); ok {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, []models.Team{})
}

func (s *Server) getTeamPlayers(c *gin.Context) {
	season, err := models.ParseSeason(c.Param("season"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown season"})
		return
	}
	if raw, ok := s.playerStats.ReadRosterRaw(season, c.Param("team")); ok {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, []models.PlayerSeasonStats{})
}

func (s *Server) getPlayerCareer(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("player_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	if raw, ok := s.playerStats.ReadCareerRaw(playerID); ok {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown player"})
}

func (s *Server) addUser(c *gin.Context) {
	var req struct {
		ID         string   `json:"id" binding:"required"`
		Teams      []string `json:"teams"`
		APNToken   *string  `json:"apn_token"`
		IOSVersion *string  `json:"ios_version"`
		AppVersion *string  `json:"app_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.users.AddUser(models.User{
		ID:         req.ID,
		Teams:      req.Teams,
		APNToken:   req.APNToken,
		IOSVersion: req.IOSVersion,
		AppVersion: req.AppVersion,
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) startLiveActivity(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		GameUUID string `json:"game_uuid" binding:"required"`
		Token    string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := s.registry.ReadGame(req.GameUUID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game"})
		return
	}
	s.users.StartLiveActivity(req.UserID, req.GameUUID, req.Token)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) endLiveActivity(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		GameUUID string `json:"game_uuid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.users.EndLiveActivity(req.UserID, req.GameUUID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) vote(c *gin.Context) {
	if c.GetHeader("X-API-Key") != s.apiKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req struct {
		GameUUID string `json:"game_uuid" binding:"required"`
		UserID   string `json:"user_id" binding:"required"`
		TeamCode string `json:"team_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tally, err := s.votes.Vote(req.UserID, req.GameUUID, req.TeamCode)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tally.Percentages())
	case errors.Is(err, services.ErrUnknownGame),
		errors.Is(err, services.ErrInvalidTeam),
		errors.Is(err, services.ErrVotingClosed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) ws(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	s.broadcaster.HandleConnection(c.Request.Context(), conn)
}

func (s *Server) getStatus(c *gin.Context) {
	body, err := s.status.Read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
