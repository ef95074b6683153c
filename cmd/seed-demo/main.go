// seed-demo creates a small shop for local development: customers, products,
// a few credit sales and direct credits, and some payments.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/workflow"
	"github.com/shopspring/decimal"
)

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(); err != nil {
		fail("migrate", err)
	}

	customers := make([]*models.Customer, 0, 3)
	for _, in := range []models.NewCustomer{
		{Name: "Maria Gomez", Phone: "300 123 4567"},
		{Name: "Luis Herrera", Phone: "310 555 0101"},
		{Name: "Ana Rojas"},
	} {
		c, err := models.CreateCustomer(ctx, &in)
		if err != nil {
			fail("create customer "+in.Name, err)
		}
		customers = append(customers, c)
	}

	products := make([]*models.Product, 0, 4)
	for _, in := range []models.NewProduct{
		{Name: "Arroz 1kg", UnitPrice: decimal.RequireFromString("4500"), StockActual: 40},
		{Name: "Aceite 1L", UnitPrice: decimal.RequireFromString("12000"), StockActual: 15},
		{Name: "Huevos x30", UnitPrice: decimal.RequireFromString("18000"), StockActual: 10},
		{Name: "Sal 500g", UnitPrice: decimal.RequireFromString("1500"), StockActual: 6},
	} {
		p, err := models.CreateProduct(ctx, &in)
		if err != nil {
			fail("create product "+in.Name, err)
		}
		products = append(products, p)
	}

	ledger := workflow.NewDebtLedger(db, config.GetLogger())
	sale, err := ledger.CreateCreditSale(ctx, &workflow.NewCreditSale{
		CustomerId: customers[0].ID,
		Lines: []models.ProductQuantity{
			{ProductId: products[0].ID, Quantity: 2},
			{ProductId: products[1].ID, Quantity: 1},
		},
	})
	if err != nil {
		fail("credit sale", err)
	}
	if _, err := ledger.ApplyPartialPayment(ctx, sale.ID, decimal.RequireFromString("10000")); err != nil {
		fail("partial payment", err)
	}

	credit, err := ledger.CreateDirectCredit(ctx, &workflow.NewDirectCredit{
		CustomerId: customers[1].ID,
		Amount:     decimal.RequireFromString("50000"),
		Notes:      "prestamo efectivo",
	})
	if err != nil {
		fail("direct credit", err)
	}
	if _, err := ledger.ApplyFullPayment(ctx, credit.ID); err != nil {
		fail("full payment", err)
	}

	if _, err := ledger.CreateDirectCreditFromItems(ctx, &workflow.NewCreditSale{
		CustomerId: customers[2].ID,
		Lines:      []models.ProductQuantity{{ProductId: products[2].ID, Quantity: 1}},
	}); err != nil {
		fail("direct credit with items", err)
	}

	fmt.Printf("seeded %d customers, %d products\n", len(customers), len(products))
}
