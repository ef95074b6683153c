package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/models/reports"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/shopspring/decimal"
)

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindError(c, err)
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func customerBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		balance, err := reports.GetCustomerBalance(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, balance)
	}
}

// customerDebtsHandler serves the unified view. ?kind=CreditSale or ?kind=DirectCredit keeps one kind.
func customerDebtsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		kind := models.DebtKind(c.Query("kind"))
		if kind != "" && !kind.IsValid() {
			abortWithError(c, &utils.ValidationError{Fields: map[string]string{"kind": "oneof"}})
			return
		}
		debts, err := ledgerFactory().UnifiedView(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if kind != "" {
			filtered := make([]*models.DebtInstance, 0, len(debts))
			for _, d := range debts {
				if d.Kind == kind {
					filtered = append(filtered, d)
				}
			}
			debts = filtered
		}
		c.JSON(http.StatusOK, debts)
	}
}

func customerMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		history, err := reports.GetPaymentHistory(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

// customerEntriesHandler lists ledger lines across both debt kinds. ?status=pending,partially_paid filters them.
func customerEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var statuses []models.EntryStatus
		for _, s := range utils.SplitAndTrim(c.Query("status")) {
			status, err := models.ParseEntryStatus(s)
			if err != nil {
				abortWithError(c, &utils.ValidationError{Fields: map[string]string{"status": "oneof"}})
				return
			}
			statuses = append(statuses, status)
		}
		ctx := c.Request.Context()
		db := config.GetDB()
		if _, err := models.FindCustomer(ctx, db, id); err != nil {
			abortWithError(c, err)
			return
		}
		entries, err := models.FindEntriesByCustomer(ctx, db, id, statuses...)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindError(c, err)
			return
		}
		product, err := models.CreateProduct(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

type productPriceRequest struct {
	UnitPrice string `json:"unit_price" binding:"required"`
}

// updateProductPriceHandler changes the price for future sales. Existing lines keep their snapshot.
func updateProductPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c, "id")
		if !ok {
			return
		}
		var req productPriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithBindError(c, err)
			return
		}
		price, ok := parseAmountField(c, "unit_price", req.UnitPrice)
		if !ok {
			return
		}
		if !price.IsPositive() {
			abortWithError(c, &utils.ValidationError{Fields: map[string]string{"unit_price": "gt"}})
			return
		}
		product, err := models.UpdateProductPrice(c.Request.Context(), id, price)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func lowStockProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.GetLowStockProducts(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// parseAmountField reads a money amount sent as a JSON string such as "1,500.00".
func parseAmountField(c *gin.Context, field, value string) (decimal.Decimal, bool) {
	amount, err := utils.ParseAmount(value)
	if err != nil {
		abortWithError(c, &utils.ValidationError{Fields: map[string]string{field: "numeric"}})
		return decimal.Zero, false
	}
	return amount, true
}
