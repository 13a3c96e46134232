package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/shopcart-backend/config"
	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const batchSize = 500

// Expected header: name, description, price, stock, max_order_quantity, active, image_key
const (
	colName = iota
	colDescription
	colPrice
	colStock
	colMaxOrder
	colActive
	colImageKey
	columnCount
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> [--yes]")
	}
	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "--yes"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, skipped, err := readProductsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Products to import: %d (skipped rows: %d)\n", len(products), skipped)
	if len(products) == 0 {
		return
	}

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	productRepo := repository.NewProductRepository(db.GetDB())
	if err := productRepo.BulkCreate(context.Background(), products, batchSize); err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Printf("Import completed: %d products\n", len(products))
}

// readProductsFromXLSX parses the first sheet. Rows with a missing name, an
// unparsable number or a negative value are skipped and counted.
func readProductsFromXLSX(filePath string) ([]model.Product, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	seen := make(map[string]bool)
	skipped := 0

	for _, row := range rows[1:] {
		product, ok := parseProductRow(row)
		if !ok || seen[strings.ToLower(product.Name)] {
			skipped++
			continue
		}
		seen[strings.ToLower(product.Name)] = true
		products = append(products, product)
	}

	return products, skipped, nil
}

func parseProductRow(row []string) (model.Product, bool) {
	// GetRows trims trailing empty cells.
	cells := make([]string, columnCount)
	for i := 0; i < columnCount && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}

	if cells[colName] == "" {
		return model.Product{}, false
	}

	price, err := decimal.NewFromString(cells[colPrice])
	if err != nil || price.IsNegative() {
		return model.Product{}, false
	}
	stock, err := strconv.Atoi(cells[colStock])
	if err != nil || stock < 0 {
		return model.Product{}, false
	}
	maxOrder := 0
	if cells[colMaxOrder] != "" {
		maxOrder, err = strconv.Atoi(cells[colMaxOrder])
		if err != nil || maxOrder < 0 {
			return model.Product{}, false
		}
	}
	active := true
	if cells[colActive] != "" {
		active, err = strconv.ParseBool(cells[colActive])
		if err != nil {
			return model.Product{}, false
		}
	}

	return model.Product{
		ID:               uuid.NewString(),
		Name:             cells[colName],
		Description:      cells[colDescription],
		Price:            price.Round(2),
		StockQuantity:    stock,
		MaxOrderQuantity: maxOrder,
		IsActive:         active,
		ImageKey:         cells[colImageKey],
	}, true
}
