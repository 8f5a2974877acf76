// Package controlplane runs an in-memory Control Hub for tests.
package controlplane

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/askiada/sch-migrate/pkg/controlhub"
	"github.com/askiada/sch-migrate/pkg/definition"
)

const (
	Username = "admin@org"
	Password = "secret"

	sessionToken = "session-token"
)

// Published is a pipeline received on the publish endpoint.
type Published struct {
	Name          string
	CommitMessage string
	SdcID         string
	SdcVersion    string
	Definition    *definition.Pipeline
	Rules         string
}

type commit struct {
	controlhub.CommitSummary
	PipelineDefinition string `json:"pipelineDefinition"`
	RulesDefinition    string `json:"rulesDefinition"`
}

// ControlPlane is a fake Control Hub served over HTTP.
type ControlPlane struct {
	*httptest.Server

	mu          sync.Mutex
	commits     map[string]*commit
	collectors  map[string]controlhub.DataCollector
	libraries   map[string]controlhub.StageLibrary
	published   []Published
	failPublish map[string]int
	logins      int
}

//nolint:gochecknoinits
func init() {
	gin.SetMode(gin.TestMode)
}

// New starts a fake control plane, closed when the test ends.
func New(t *testing.T) *ControlPlane {
	t.Helper()

	cp := &ControlPlane{
		commits:     make(map[string]*commit),
		collectors:  make(map[string]controlhub.DataCollector),
		libraries:   make(map[string]controlhub.StageLibrary),
		failPublish: make(map[string]int),
	}

	router := gin.New()
	router.POST(controlhub.LoginPath, cp.login)

	api := router.Group("/", cp.authenticate)
	api.GET(controlhub.PipelinesPath, cp.searchPipelines)
	api.PUT(controlhub.PipelinesPath, cp.publish)
	api.GET("/pipelinestore/rest/v1/pipelineCommit/:commitId", cp.pipelineCommit)
	api.GET("/jobrunner/rest/v1/sdc/:id", cp.dataCollector)
	api.GET("/tunneling/rest/:id/rest/v1/definitions", cp.definitions)

	cp.Server = httptest.NewServer(router)
	t.Cleanup(cp.Close)

	return cp
}

// AddPipeline registers a pipeline authored on sdcID and returns its commit id.
func (cp *ControlPlane) AddPipeline(name, sdcID, pipelineDefinition, rulesDefinition string) string {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	commitID := fmt.Sprintf("commit-%d", len(cp.commits)+1)
	cp.commits[commitID] = &commit{
		CommitSummary: controlhub.CommitSummary{
			PipelineID: strings.ReplaceAll(name, " ", "") + "-id",
			CommitID:   commitID,
			Name:       name,
			Version:    "1",
			SdcID:      sdcID,
			SdcVersion: "3.22.0",
		},
		PipelineDefinition: pipelineDefinition,
		RulesDefinition:    rulesDefinition,
	}

	return commitID
}

// AddDataCollector registers an authoring node and the stages it offers.
func (cp *ControlPlane) AddDataCollector(node controlhub.DataCollector, library controlhub.StageLibrary) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.collectors[node.ID] = node
	cp.libraries[node.ID] = library
}

// FailPublish makes publishing the pipeline called name answer status.
func (cp *ControlPlane) FailPublish(name string, status int) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.failPublish[name] = status
}

// Published returns the pipelines published so far.
func (cp *ControlPlane) Published() []Published {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	out := make([]Published, len(cp.published))
	copy(out, cp.published)

	return out
}

// Logins returns the number of successful logins.
func (cp *ControlPlane) Logins() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	return cp.logins
}

func (cp *ControlPlane) login(c *gin.Context) {
	var body struct {
		UserName string `json:"userName"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, err.Error())

		return
	}

	if body.UserName != Username || body.Password != Password {
		c.String(http.StatusUnauthorized, "invalid credentials")

		return
	}

	cp.mu.Lock()
	cp.logins++
	cp.mu.Unlock()

	c.Header(controlhub.AuthTokenHeader, sessionToken)
	c.Status(http.StatusOK)
}

func (cp *ControlPlane) authenticate(c *gin.Context) {
	if c.GetHeader(controlhub.AuthTokenHeader) != sessionToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing session"})

		return
	}

	if c.GetHeader(controlhub.RequestedByHeader) == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "missing " + controlhub.RequestedByHeader})

		return
	}

	c.Next()
}

func (cp *ControlPlane) searchPipelines(c *gin.Context) {
	filter := c.Query("filterText")

	cp.mu.Lock()
	defer cp.mu.Unlock()

	out := []controlhub.CommitSummary{}

	for _, cmt := range cp.commits {
		if strings.Contains(cmt.Name, filter) {
			out = append(out, cmt.CommitSummary)
		}
	}

	c.JSON(http.StatusOK, out)
}

func (cp *ControlPlane) pipelineCommit(c *gin.Context) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cmt, ok := cp.commits[c.Param("commitId")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such commit"})

		return
	}

	c.JSON(http.StatusOK, cmt)
}

func (cp *ControlPlane) dataCollector(c *gin.Context) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	node, ok := cp.collectors[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such data collector"})

		return
	}

	c.JSON(http.StatusOK, node)
}

func (cp *ControlPlane) definitions(c *gin.Context) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	library, ok := cp.libraries[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such data collector"})

		return
	}

	c.JSON(http.StatusOK, library)
}

func (cp *ControlPlane) publish(c *gin.Context) {
	body := commit{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.String(http.StatusBadRequest, err.Error())

		return
	}

	def, err := definition.ParsePipeline(body.PipelineDefinition)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())

		return
	}

	if body.RulesDefinition != "" && !json.Valid([]byte(body.RulesDefinition)) {
		c.String(http.StatusBadRequest, "invalid rules definition")

		return
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()

	if status, ok := cp.failPublish[body.Name]; ok {
		c.JSON(status, gin.H{"message": "publish rejected"})

		return
	}

	cp.published = append(cp.published, Published{
		Name:          body.Name,
		CommitMessage: body.CommitMessage,
		SdcID:         body.SdcID,
		SdcVersion:    body.SdcVersion,
		Definition:    def,
		Rules:         body.RulesDefinition,
	})

	summary := body.CommitSummary
	title, ok := def.Title()
	if !ok {
		title = body.Name
	}

	summary.PipelineID = title + "-id"
	summary.CommitID = fmt.Sprintf("published-%d", len(cp.published))
	summary.Version = "1"

	c.JSON(http.StatusCreated, summary)
}
