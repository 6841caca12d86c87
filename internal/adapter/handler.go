package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"gemini-chat/internal/attach"
	"gemini-chat/internal/chat"
	"gemini-chat/internal/gemini"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatRequest struct {
	Text string `json:"text"`
}

type ChatResponse struct {
	Messages []chat.Message `json:"messages"`
	Restore  string         `json:"restore,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type RouterOptions struct {
	Store         *SessionStore
	Model         string
	Aliases       map[string]string
	MaxImageBytes int64
	ProxyAPIKey   string
	Logger        *zap.SugaredLogger
}

func NewRouter(opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Named("http")))
	r.Use(CORSMiddleware())

	r.GET("/", IndexHandler)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "gemini-chat is running",
			"model":  opts.Model,
		})
	})

	api := r.Group("/api")
	api.Use(AuthMiddleware(opts.ProxyAPIKey))
	api.GET("/models", ListModelsHandler(opts.Model, opts.Aliases))

	sessions := api.Group("")
	sessions.Use(SessionMiddleware(opts.Store))
	sessions.POST("/chat", ChatHandler(log.Named("chat")))
	sessions.POST("/attach", AttachHandler(opts.MaxImageBytes))
	sessions.DELETE("/attach", RemoveAttachmentHandler)

	return r
}

func ChatHandler(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		transcript := &chat.Transcript{}
		restore, err := sess.Send(c.Request.Context(), req.Text, transcript)
		if errors.Is(err, chat.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   gemini.FormatError(err),
				"restore": restore,
			})
			return
		}

		resp := ChatResponse{
			Messages: transcript.Messages(),
			Restore:  restore,
		}
		if err != nil {
			resp.Error = gemini.FormatError(err)
			log.Infow("send failed", "error", err)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func AttachHandler(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = attach.DefaultMaxBytes
	}
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		// Leave room for the multipart envelope so oversize files still
		// reach the size check and get its message.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

		fh, err := c.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				err = fmt.Errorf("%w: upload exceeds %d bytes", attach.ErrTooLarge, maxBytes)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": gemini.FormatError(err)})
			return
		}

		img, err := attach.EncodeMultipart(fh, maxBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gemini.FormatError(err)})
			return
		}

		sess.Attach(img)
		c.JSON(http.StatusOK, gin.H{
			"name":    img.Name,
			"dataUrl": img.DataURL,
		})
	}
}

func RemoveAttachmentHandler(c *gin.Context) {
	sess := sessionFrom(c)
	if sess == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
		return
	}
	sess.Remove()
	c.Status(http.StatusNoContent)
}

func ListModelsHandler(model string, aliases map[string]string) gin.HandlerFunc {
	type ModelCard struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
		Target  string `json:"target,omitempty"`
	}

	return func(c *gin.Context) {
		models := []ModelCard{
			{ID: model, Object: "model", OwnedBy: "Google"},
		}
		names := make([]string, 0, len(aliases))
		for alias := range aliases {
			names = append(names, alias)
		}
		sort.Strings(names)
		for _, alias := range names {
			models = append(models, ModelCard{ID: alias, Object: "model", OwnedBy: "Google", Target: aliases[alias]})
		}

		c.JSON(http.StatusOK, gin.H{
			"object": "list",
			"data":   models,
		})
	}
}
