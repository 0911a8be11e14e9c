package server

import (
	"fmt"
	"net/http"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Texts          []string `json:"texts" binding:"required"`
	TargetLanguage string   `json:"targetLanguage" binding:"required"`
	SourceLanguage string   `json:"sourceLanguage"`
}

// TranslateResponse is the success body of POST /translate.
type TranslateResponse struct {
	Translations []string `json:"translations"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": dobhasi.Name,
		"version": dobhasi.Version,
	})
}

func (s *Server) translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	target, ok := dobhasi.ParseLanguage(req.TargetLanguage)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unsupported targetLanguage %q", req.TargetLanguage)})
		return
	}

	var source dobhasi.Language
	if req.SourceLanguage != "" {
		if source, ok = dobhasi.ParseLanguage(req.SourceLanguage); !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unsupported sourceLanguage %q", req.SourceLanguage)})
			return
		}
	}

	if len(req.Texts) > s.maxTexts {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("at most %d texts per request", s.maxTexts)})
		return
	}

	if len(req.Texts) == 0 {
		c.JSON(http.StatusOK, TranslateResponse{Translations: []string{}})
		return
	}

	translations, err := s.provider.Translate(c.Request.Context(), dobhasi.TranslateRequest{
		Texts:      req.Texts,
		TargetLang: target,
		SourceLang: source,
	})
	if err == nil && len(translations) != len(req.Texts) {
		err = &dobhasi.CountMismatchError{Expected: len(req.Texts), Got: len(translations)}
	}
	if err != nil {
		kind := dobhasi.KindOf(err)
		s.logger.Warn("translation failed",
			zap.String("request_id", getRequestID(c)),
			zap.String("kind", kind.String()),
			zap.Int("texts", len(req.Texts)),
			zap.Error(err),
		)
		c.Error(err)
		c.JSON(statusFor(kind), ErrorResponse{Error: "translation failed", Kind: kind.String()})
		return
	}

	c.JSON(http.StatusOK, TranslateResponse{Translations: translations})
}

// statusFor maps an error kind to the status a FunctionProvider maps back.
func statusFor(kind dobhasi.ErrorKind) int {
	switch kind {
	case dobhasi.KindRateLimited:
		return http.StatusTooManyRequests
	case dobhasi.KindQuotaExceeded:
		return http.StatusPaymentRequired
	case dobhasi.KindTimeout:
		return http.StatusGatewayTimeout
	case dobhasi.KindMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
