package catalog

const (
	CategoryCarts  = "🖊️"
	CategoryFlower = "🍃"
)

// Default returns the bot's built-in menu.
func Default() *Catalog {
	c, err := New(
		[]Category{
			{Name: CategoryCarts, Products: []string{"Turn", "Jeeter Juice", "Dabwoods", "Crybaby", "Buzzbar"}},
			{Name: CategoryFlower, Products: []string{"1"}},
		},
		[]Product{
			{Name: "Turn", ImageURL: "https://ibb.co/G4M71k9n", Options: bulkOptions(35, 350, 650, 1200)},
			{Name: "Jeeter Juice", ImageURL: "https://ibb.co/gBLBy9W", Options: bulkOptions(35, 350, 650, 1200)},
			{Name: "Dabwoods", ImageURL: "https://ibb.co/FkmqZ1d7", Options: []PriceOption{{"1x", 40}, {"50x", 700}}},
			{Name: "Crybaby", ImageURL: "https://ibb.co/zhQdsVJF", Options: []PriceOption{{"1x", 35}, {"50x", 650}, {"100x", 1100}}},
			{Name: "Buzzbar", ImageURL: "https://ibb.co/7tcTq6JJ", Options: []PriceOption{{"1x", 35}, {"50x", 650}}},
			{Name: "1", ImageURL: "https://ibb.co/ZtZv3Yy", Options: []PriceOption{
				{"1", 1000}, {"1/4", 350}, {"1/2", 650}, {"2", 1800}, {"5 (Free One)", 4000},
			}},
		},
		"https://ibb.co/JRKtV7Vc",
	)
	if err != nil {
		panic(err)
	}
	return c
}

func bulkOptions(one, twentyFive, fifty, hundred int) []PriceOption {
	return []PriceOption{{"1x", one}, {"25x", twentyFive}, {"50x", fifty}, {"100x", hundred}}
}
