package site

import (
	"errors"
	"net/http"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/palette"
	"github.com/Zachkp/folio/internal/store"
)

const maxMessageLen = 5000

type categoryOption struct {
	Value    string
	Label    string
	Selected bool
}

func categoryOptions(selected string) []categoryOption {
	opts := []categoryOption{{Value: "all", Label: "All", Selected: selected == "" || selected == "all"}}
	for _, c := range content.Categories {
		opts = append(opts, categoryOption{Value: string(c), Label: c.Label(), Selected: string(c) == selected})
	}
	return opts
}

func (s *Server) setupPageRoutes(r *gin.Engine) {
	r.GET("/", s.handleIndex)

	r.GET("/work-content", func(c *gin.Context) {
		data, err := buildTimeline(s.content.Get(), c.Query("exp"), s.now())
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.HTML(http.StatusOK, "work-content.html", data)
	})

	r.GET("/education-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "education-content.html", gin.H{
			"education": s.content.Get().Education,
		})
	})

	r.GET("/skills-content", func(c *gin.Context) {
		category := c.Query("category")
		if category != "" && category != "all" && !slices.Contains(content.Categories, content.Category(category)) {
			c.HTML(http.StatusNotFound, "not-found.html", gin.H{"what": "category " + category})
			return
		}
		skills := content.FilterSkills(s.content.Get().Skills, content.Category(category))
		c.HTML(http.StatusOK, "skills-content.html", gin.H{
			"groups":     content.GroupSkills(skills),
			"categories": categoryOptions(category),
		})
	})

	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})

	r.POST("/contact", s.handleContact)

	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":         "Privacy Policy",
			"retentionDays": s.cfg.RetentionDays,
		})
	})

	r.GET("/resume", func(c *gin.Context) {
		url := s.content.Get().User.ResumeURL
		if url == "" {
			c.HTML(http.StatusNotFound, "not-found.html", gin.H{"what": "resume"})
			return
		}
		c.Redirect(http.StatusFound, url)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.hub.Len()})
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	p := s.content.Get()
	about, err := content.Markdown(p.User.About)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"user":       p.User,
		"about":      about,
		"projects":   p.Projects,
		"education":  p.Education,
		"skills":     content.GroupSkills(p.Skills),
		"categories": categoryOptions(""),
		"commands":   palette.Commands(p.User),
		"active":     c.Query("exp"),
		"cooldownMS": s.cfg.Tracker.CooldownMS,
	})
}

// handleContact stores the message and mails it. Once stored the visitor
// sees success even if mailing fails; the admin dashboard lists it.
func (s *Server) handleContact(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("fullName"))
	email := strings.TrimSpace(c.PostForm("email"))
	message := strings.TrimSpace(c.PostForm("message"))

	if msg := validateContact(name, email, message); msg != "" {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	id, err := s.db.SaveMessage(ctx, store.Message{Name: name, Email: email, Message: message})
	if err != nil {
		s.log.Error("error saving contact message", zap.Error(err))
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	switch err := s.mailer.SendContact(name, email, message); {
	case err == nil:
		if err := s.db.MarkDelivered(ctx, id); err != nil {
			s.log.Warn("error marking message delivered", zap.Int64("id", id), zap.Error(err))
		}
		s.log.Info("contact email sent", zap.Int64("id", id))
	case errors.Is(err, ErrSMTPNotConfigured):
		s.log.Debug("contact message stored without email", zap.Int64("id", id))
	default:
		s.log.Error("error sending email", zap.Int64("id", id), zap.Error(err))
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}

// validateContact returns a message for the visitor, or "" when the form is
// acceptable.
func validateContact(name, email, message string) string {
	switch {
	case name == "" || email == "" || message == "":
		return "Please fill in your name, email and message."
	case utf8.RuneCountInString(name) > 200:
		return "Please use a shorter name."
	case utf8.RuneCountInString(message) > maxMessageLen:
		return "Your message is too long."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Please enter a valid email address."
	}
	return ""
}

func (s *Server) renderError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"error": "Something went wrong. Please try again later.",
	})
}
