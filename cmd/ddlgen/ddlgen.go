// cmd/ddlgen/ddlgen.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	cartdomain "steepery/internal/domain/cart"
	"steepery/internal/domain/ingredient"
	orderdomain "steepery/internal/domain/order"
	"steepery/internal/domain/product"
)

func mustWrite(path string, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}

func main() {
	outDir := filepath.Join("internal", "infra", "database", "migrations")

	outCarts := filepath.Join(outDir, "init_carts.sql")
	outIngredients := filepath.Join(outDir, "init_ingredients.sql")
	outOrders := filepath.Join(outDir, "init_orders.sql")
	outProducts := filepath.Join(outDir, "init_products.sql")

	mustWrite(outCarts, cartdomain.CartsTableDDL)
	fmt.Println("✅ Generated:", outCarts)

	mustWrite(outIngredients, ingredient.IngredientsTableDDL)
	fmt.Println("✅ Generated:", outIngredients)

	mustWrite(outOrders, orderdomain.OrdersTableDDL)
	fmt.Println("✅ Generated:", outOrders)

	mustWrite(outProducts, product.ProductsTableDDL)
	fmt.Println("✅ Generated:", outProducts)
}
