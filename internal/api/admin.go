package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type reloadReq struct {
	ModelDir string `json:"model_dir"` // пусто — текущий каталог модели
	Strict   bool   `json:"strict"`    // предупреждения линтера тоже блокируют
}

func AdminReloadHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		// 1) собираем новую модель, текущая пока остаётся на месте
		b := store.Build(strings.TrimSpace(req.ModelDir))
		if !b.OK {
			store.Publish(b)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "model build failed",
				"build":  b.ID,
				"dir":    b.Dir,
				"report": b.Report,
				"detail": b.Error,
			})
			return
		}

		// 2) линтер
		issues := SchemaLint(b.model)
		if blockers := blocking(issues, req.Strict); len(blockers) > 0 {
			b.OK = false
			b.Error = "schema has blocking issues"
			store.Publish(b)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  b.Error,
				"build":  b.ID,
				"dir":    b.Dir,
				"issues": blockers,
				"hint":   "fix the model and retry",
			})
			return
		}

		// 3) замена под write-lock
		store.Publish(b)
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"build":    b.ID,
			"dir":      b.Dir,
			"entities": b.Entities,
			"warnings": b.Warnings,
			"issues":   issues,
		})
	}
}
