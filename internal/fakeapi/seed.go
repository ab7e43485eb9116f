package fakeapi

import "fmt"

// DemoPassword is the password of every account created by SeedDemo.
const DemoPassword = "storefront"

// SeedDemo fills the server with a shopper, a seller, an admin and a small
// catalog.
func (s *Server) SeedDemo() error {
	accounts := []struct{ email, name, role string }{
		{"shopper@example.com", "Sam Shopper", roleUser},
		{"seller@example.com", "Sal Seller", roleSeller},
		{"admin@example.com", "Ada Admin", roleAdmin},
	}
	for _, a := range accounts {
		if _, err := s.AddUser(a.email, DemoPassword, a.name, a.role); err != nil {
			return fmt.Errorf("seed %s: %w", a.email, err)
		}
	}

	products := []struct {
		name, description string
		price             int64
		stock             int
	}{
		{"Espresso Beans 1kg", "Dark roast, single origin", 4999, 40},
		{"Pour Over Kettle", "Gooseneck, 1.2L", 8900, 12},
		{"Ceramic Dripper", "Size 02", 2950, 25},
		{"Paper Filters", "Pack of 100", 799, 200},
		{"Burr Grinder", "40 grind settings", 21900, 5},
		{"Milk Jug 600ml", "Stainless steel", 2400, 30},
		{"Digital Scale", "0.1g resolution with timer", 5500, 18},
		{"Cold Brew Bottle", "1L glass bottle with filter", 3450, 22},
		{"Tamper 58mm", "Calibrated spring tamper", 6900, 9},
		{"Knock Box", "Rubber bar, dishwasher safe", 3900, 14},
		{"Barista Apron", "Waxed canvas", 7500, 8},
		{"Cleaning Tablets", "Pack of 50", 1899, 60},
	}
	for i, p := range products {
		s.AddProduct(p.name, p.description, p.price, p.stock, fmt.Sprintf("https://picsum.photos/seed/%d/400", i+1))
	}
	return nil
}
