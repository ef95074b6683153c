package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fiado_backend/models/reports"
	"github.com/mmdatafocus/fiado_backend/utils"
)

// agingReportHandler buckets open debt by age. cutoff=YYYY-MM-DD, default today.
func agingReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cutoff := time.Now().UTC()
		if v := c.Query("cutoff"); v != "" {
			d, err := utils.ParseDate(v)
			if err != nil {
				abortWithError(c, &utils.ValidationError{Fields: map[string]string{"cutoff": "datetime"}})
				return
			}
			cutoff = d
		}
		report, err := reports.GetAgingReport(c.Request.Context(), cutoff)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func debtorsReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reports.GetCustomerBalancesReport(c.Request.Context(), queryLimit(c, reports.DefaultReportLimit), time.Now().UTC())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func productsReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reports.GetOutstandingByProductReport(c.Request.Context(), queryLimit(c, reports.DefaultReportLimit))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func summaryReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := reports.GetDebtSummaryReport(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
