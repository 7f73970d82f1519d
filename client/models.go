package client

// Vehicle is a storefront inventory item.
type Vehicle struct {
	ID       int64    `json:"id"`
	Slug     string   `json:"slug"`
	Make     string   `json:"make"`
	Model    string   `json:"model"`
	Year     int      `json:"year"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Category string   `json:"category"`
	Images   []string `json:"images"`
	Sold     bool     `json:"sold"`
}

// Category groups vehicles on the storefront.
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// BlogPost is a storefront article.
type BlogPost struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Body        string `json:"body"`
	Locale      string `json:"locale"`
	PublishedAt string `json:"publishedAt"`
}

// Page is a static content page (about, contact, ...).
type Page struct {
	ID     int64  `json:"id"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Locale string `json:"locale"`
}

// Settings holds the global site configuration.
type Settings struct {
	SiteName       string            `json:"siteName"`
	DefaultLocale  string            `json:"defaultLocale"`
	Locales        []string          `json:"locales"`
	ContactEmail   string            `json:"contactEmail"`
	ContactPhone   string            `json:"contactPhone"`
	SocialLinks    map[string]string `json:"socialLinks"`
	AnnouncementTR string            `json:"announcementTr"`
	AnnouncementEN string            `json:"announcementEn"`
}

// Offer is a promotional campaign entry.
type Offer struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Vehicle  string  `json:"vehicle"`
	Discount float64 `json:"discount"`
	Until    string  `json:"until"`
}

// Customer is a back-office lead record.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
