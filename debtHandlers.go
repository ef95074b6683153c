package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/workflow"
)

// ledgerFactory builds the ledger over the current global DB. The DB connects after the port opens.
var ledgerFactory = func() *workflow.DebtLedger {
	return workflow.NewDebtLedger(config.GetDB(), config.GetLogger())
}

type directCreditRequest struct {
	CustomerId int                      `json:"customer_id" binding:"required"`
	Amount     string                   `json:"amount"`
	Lines      []models.ProductQuantity `json:"lines"`
	Notes      string                   `json:"notes"`
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// createDirectCreditHandler records a fixed amount, or a product based direct credit when lines are sent.
func createDirectCreditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req directCreditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithBindError(c, err)
			return
		}
		ledger := ledgerFactory()
		var (
			instance *models.DebtInstance
			err      error
		)
		if len(req.Lines) > 0 {
			instance, err = ledger.CreateDirectCreditFromItems(c.Request.Context(), &workflow.NewCreditSale{
				CustomerId: req.CustomerId,
				Lines:      req.Lines,
				Notes:      req.Notes,
			})
		} else {
			amount, ok := parseAmountField(c, "amount", req.Amount)
			if !ok {
				return
			}
			instance, err = ledger.CreateDirectCredit(c.Request.Context(), &workflow.NewDirectCredit{
				CustomerId: req.CustomerId,
				Amount:     amount,
				Notes:      req.Notes,
			})
		}
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, instance)
	}
}

func createCreditSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.NewCreditSale
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindError(c, err)
			return
		}
		instance, err := ledgerFactory().CreateCreditSale(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, instance)
	}
}

func getDebtHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		instance, err := ledgerFactory().GetDebtInstance(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, instance)
	}
}

func fullPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		instance, err := ledgerFactory().ApplyFullPayment(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, instance)
	}
}

func partialPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req amountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithBindError(c, err)
			return
		}
		amount, ok := parseAmountField(c, "amount", req.Amount)
		if !ok {
			return
		}
		instance, err := ledgerFactory().ApplyPartialPayment(c.Request.Context(), id, amount)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, instance)
	}
}

func cancelDebtHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		instance, err := ledgerFactory().CancelInstance(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, instance)
	}
}

func entryAbonoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req amountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithBindError(c, err)
			return
		}
		amount, ok := parseAmountField(c, "amount", req.Amount)
		if !ok {
			return
		}
		instance, err := ledgerFactory().AbonarLineItem(c.Request.Context(), id, amount)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, instance)
	}
}
