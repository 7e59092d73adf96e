// Package news holds the article catalog shown on the front page.
package news

import (
	"errors"
	"slices"
	"sync"

	"github.com/pliu/newsportal/internal/models"
)

// Sections of the front page.
const (
	SectionLatest  = "latest"
	SectionPopular = "popular"
)

var (
	ErrNotFound       = errors.New("article not found")
	ErrUnknownSection = errors.New("unknown section")
)

type Catalog struct {
	mu       sync.RWMutex
	sections map[string][]models.Article
	byID     map[int]models.Article
	links    map[string]bool
	nextID   int
}

// NewCatalog returns the built-in articles.
func NewCatalog() *Catalog {
	c := &Catalog{
		sections: make(map[string][]models.Article),
		byID:     make(map[int]models.Article),
		links:    make(map[string]bool),
		nextID:   1,
	}
	for _, a := range latest {
		c.add(SectionLatest, a)
	}
	for _, a := range popular {
		c.add(SectionPopular, a)
	}
	return c
}

// add must be called with mu held.
func (c *Catalog) add(section string, a models.Article) {
	c.sections[section] = append(c.sections[section], a)
	c.byID[a.ID] = a
	if a.Link != "" {
		c.links[a.Link] = true
	}
	if a.ID >= c.nextID {
		c.nextID = a.ID + 1
	}
}

// List returns a section in display order. An empty section means all
// articles, latest first.
func (c *Catalog) List(section string) ([]models.Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch section {
	case "":
		all := slices.Clone(c.sections[SectionLatest])
		return append(all, c.sections[SectionPopular]...), nil
	case SectionLatest, SectionPopular:
		return slices.Clone(c.sections[section]), nil
	default:
		return nil, ErrUnknownSection
	}
}

func (c *Catalog) Get(id int) (models.Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byID[id]
	if !ok {
		return models.Article{}, ErrNotFound
	}
	return a, nil
}

// Lookup resolves saved ids in order, skipping ids the catalog doesn't know.
func (c *Catalog) Lookup(ids []int) []models.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := c.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

var latest = []models.Article{
	{
		ID:       1,
		Title:    "Утечка данных клиентов Альфа-Банка: под угрозой миллионы пользователей",
		Category: "Безопасность",
		Excerpt:  "В даркнете появилась база с персональными данными клиентов Альфа-Банка. Эксперты оценивают масштаб утечки в несколько миллионов записей.",
		Date:     "24 дек 2024",
		Author:   "Александр Киберов",
		Views:    45892,
		Comments: 234,
		Featured: true,
	},
	{
		ID:       2,
		Title:    "Прорыв в искусственном интеллекте: новая модель превзошла все ожидания",
		Category: "Технологии",
		Excerpt:  "Исследователи представили революционную систему ИИ, способную решать сложные задачи с беспрецедентной точностью.",
		Date:     "23 дек 2024",
		Author:   "Алексей Иванов",
		Views:    12458,
		Comments: 89,
	},
	{
		ID:       3,
		Title:    "Космический туризм становится реальностью",
		Category: "Космос",
		Excerpt:  "Частные компании объявили о запуске коммерческих рейсов на орбиту уже в следующем году.",
		Date:     "22 дек 2024",
		Author:   "Мария Петрова",
		Views:    8542,
		Comments: 56,
	},
	{
		ID:       4,
		Title:    "Экологическая революция: новый источник чистой энергии",
		Category: "Экология",
		Excerpt:  "Ученые разработали технологию получения энергии из воздуха без вреда для окружающей среды.",
		Date:     "21 дек 2024",
		Author:   "Дмитрий Смирнов",
		Views:    6234,
		Comments: 42,
	},
	{
		ID:       5,
		Title:    "Медицина будущего: лечение болезней на генетическом уровне",
		Category: "Медицина",
		Excerpt:  "Новая терапия показала 95% эффективность в лечении ранее неизлечимых заболеваний.",
		Date:     "20 дек 2024",
		Author:   "Елена Волкова",
		Views:    9876,
		Comments: 67,
	},
}

var popular = []models.Article{
	{
		ID:       6,
		Title:    "Квантовые компьютеры вышли на новый уровень",
		Category: "Наука",
		Excerpt:  "Прорыв в квантовых вычислениях открывает путь к решению задач, недоступных обычным компьютерам.",
		Date:     "19 дек 2024",
		Author:   "Игорь Соколов",
		Views:    15678,
		Comments: 124,
	},
	{
		ID:       7,
		Title:    "Автономные автомобили заполнят города в 2025 году",
		Category: "Транспорт",
		Excerpt:  "Крупнейшие автопроизводители завершили испытания беспилотных такси.",
		Date:     "18 дек 2024",
		Author:   "Ольга Белова",
		Views:    13245,
		Comments: 98,
	},
	{
		ID:       8,
		Title:    "Виртуальная реальность изменит образование",
		Category: "Образование",
		Excerpt:  "Школы и университеты внедряют VR-технологии для создания иммерсивного обучения.",
		Date:     "17 дек 2024",
		Author:   "Сергей Новиков",
		Views:    11234,
		Comments: 76,
	},
}
