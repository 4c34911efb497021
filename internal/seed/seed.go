package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"storefront/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed storefront.yaml
var defaultData []byte

const dateLayout = "2006-01-02"

type Data struct {
	Products []models.Product
	Users    []models.User
}

type fileData struct {
	Products []productEntry `yaml:"products"`
	Users    []userEntry    `yaml:"users"`
}

type productEntry struct {
	ID          int           `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Price       float64       `yaml:"price"`
	Image       string        `yaml:"image"`
	Category    string        `yaml:"category"`
	Rating      float64       `yaml:"rating"`
	Stock       int           `yaml:"stock"`
	Featured    bool          `yaml:"featured"`
	Reviews     []reviewEntry `yaml:"reviews"`
}

type reviewEntry struct {
	ID       int    `yaml:"id"`
	UserID   int    `yaml:"user_id"`
	Username string `yaml:"username"`
	Rating   int    `yaml:"rating"`
	Comment  string `yaml:"comment"`
	Date     string `yaml:"date"`
}

type userEntry struct {
	ID       int    `yaml:"id"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Default returns the catalog and users bundled with the binary.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Load reads seed data from path, falling back to the bundled data when
// path is empty.
func Load(path string) (*Data, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	var file fileData
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	data := &Data{
		Products: make([]models.Product, 0, len(file.Products)),
		Users:    make([]models.User, 0, len(file.Users)),
	}

	seen := make(map[int]bool, len(file.Products))
	for _, p := range file.Products {
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = true
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("product %d: price and stock must be non-negative", p.ID)
		}

		product := models.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			Category:    p.Category,
			Rating:      p.Rating,
			Stock:       p.Stock,
			Featured:    p.Featured,
			Reviews:     make([]models.Review, 0, len(p.Reviews)),
		}
		for _, r := range p.Reviews {
			date, err := time.Parse(dateLayout, r.Date)
			if err != nil {
				return nil, fmt.Errorf("product %d review %d: %w", p.ID, r.ID, err)
			}
			product.Reviews = append(product.Reviews, models.Review{
				ID:       r.ID,
				UserID:   r.UserID,
				Username: r.Username,
				Rating:   r.Rating,
				Comment:  r.Comment,
				Date:     date,
			})
		}
		data.Products = append(data.Products, product)
	}

	for _, u := range file.Users {
		data.Users = append(data.Users, models.User{
			ID:       u.ID,
			Email:    u.Email,
			Password: u.Password,
			Name:     u.Name,
			Orders:   []models.Order{},
		})
	}

	return data, nil
}
