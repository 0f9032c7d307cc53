package converter

// CatalogItemRedisModel — товар каталога в JSON-представлении кэша.
type CatalogItemRedisModel struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Price    int64   `json:"price"`
	Stock    int64   `json:"stock"`
	ImageRef *string `json:"image_ref,omitempty"`
}

// CatalogRedisModel — весь список активных товаров под одним ключом.
type CatalogRedisModel struct {
	Version int                     `json:"v"`
	Items   []CatalogItemRedisModel `json:"items"`
}
