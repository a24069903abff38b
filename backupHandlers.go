package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/princerto/rto_backend/workflow"
	"github.com/gin-gonic/gin"
)

// backupExportHandler streams the selected datasets as a zip of CSVs.
// include is a comma-separated selection, e.g. master,citizen,cash_flow.
func backupExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		teamIds, ok := teamIdsOrFail(c, scope)
		if !ok {
			return
		}

		include := strings.TrimSpace(c.Query("include"))
		if include == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "include is required"})
			return
		}
		selections := strings.Split(include, ",")

		files, err := workflow.BuildExport(c.Request.Context(), teamIds, selections)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "no valid selections"})
			return
		}

		filename := fmt.Sprintf("PrinceRTO_Backup_%s.zip", time.Now().Format("2006-01-02_15-04"))
		c.Header("Content-Type", "application/zip")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Status(http.StatusOK)
		if err := workflow.WriteZip(c.Writer, files); err != nil {
			_ = c.Error(err)
		}
	}
}
