package main

import (
	"net/http"
	"strings"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/workflow"
	"github.com/gin-gonic/gin"
)

// bulkImportHandler accepts a multipart xlsx upload plus a type field and
// loads it through the one-transaction import.
func bulkImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := requestScope(c)
		if !ok {
			return
		}
		importType := strings.TrimSpace(c.PostForm("type"))
		if importType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "type is required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "could not read file"})
			return
		}
		defer file.Close()

		rows, err := workflow.ReadSheetRows(file)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "could not parse workbook: " + err.Error()})
			return
		}

		logger := config.GetLogger()
		result, err := workflow.ImportRows(c.Request.Context(), logger,
			scope.OwnerID(), scope.UserID, importType, rows)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "import error: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  "import finished",
			"imported": result.Imported,
			"skipped":  result.Skipped,
		})
	}
}
