package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/doemee-app/match-engine/internal/profile"
)

// SeedTestData resets the database and populates it with demo
// organisations, volunteers, vacancies and embeddings.
//
// Behavior:
//  1. Clears existing data in all matching tables.
//  2. Creates 3 organisations, 8 volunteers, 10 vacancies.
//  3. Stores a pseudo-random unit embedding per volunteer/vacancy.
//  4. Generates a handful of swipes so the feed and counters have
//     realistic content out of the box.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped
// for SQLite).
func SeedTestData(db *gorm.DB, embeddingDim int) error {
	r := rand.New(rand.NewSource(42))

	// --- Fresh start ---
	for _, table := range []string{"swipes", "matches", "embeddings", "vacancies", "volunteers", "organisations", "scoring_weights"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences (only for MySQL)
	if db.Dialector.Name() == "mysql" {
		for _, table := range []string{"volunteers", "organisations", "vacancies"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("welkom123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	orgs := []Organisation{
		{ID: 1, Name: "Buurthuis West", AdminEmail: "admin@buurthuiswest.test"},
		{ID: 2, Name: "Stichting Groen", AdminEmail: "info@stichtinggroen.test"},
		{ID: 3, Name: "Sportvereniging De Boog", AdminEmail: "bestuur@deboog.test"},
	}
	if err := db.Create(&orgs).Error; err != nil {
		return fmt.Errorf("failed to seed organisations: %w", err)
	}

	names := []string{"Anna", "Bram", "Carla", "Daan", "Esmee", "Fleur", "Gijs", "Hanna"}
	skillPool := []profile.StringSet{
		{"EHBO", "Koken"},
		{"Koken"},
		{"Tuinieren", "Klussen"},
		{"Lesgeven"},
		{"EHBO", "Rijbewijs"},
		{"Klussen"},
		{"Lesgeven", "Koken"},
		{"Tuinieren"},
	}
	volunteers := make([]Volunteer, 0, len(names))
	for i, name := range names {
		lat := 52.0 + r.Float64()*0.2
		lon := 4.0 + r.Float64()*0.2
		vol := Volunteer{
			ID:            uint64(i + 1),
			Name:          name,
			Email:         fmt.Sprintf("%s@demo.test", name),
			PasswordHash:  string(hash),
			Active:        true,
			Onboarded:     true,
			OpenToContact: true,
			MaxDistanceKM: 25,
			Lat:           &lat,
			Lon:           &lon,
			Skills:        skillPool[i],
			Interests:     profile.StringSet{"zorg", "natuur"},
		}
		if i%2 == 0 {
			vol.Motivation = &profile.Motivation{
				Values:        float64(2 + r.Intn(4)),
				Understanding: float64(2 + r.Intn(4)),
				Social:        float64(2 + r.Intn(4)),
				Career:        float64(1 + r.Intn(5)),
				Protection:    float64(1 + r.Intn(3)),
				Enhancement:   float64(1 + r.Intn(4)),
			}
		}
		volunteers = append(volunteers, vol)
	}
	if err := db.Create(&volunteers).Error; err != nil {
		return fmt.Errorf("failed to seed volunteers: %w", err)
	}

	titles := []string{
		"Kok voor buurtmaaltijd", "Taalmaatje", "Tuinonderhoud park",
		"EHBO'er bij sportdag", "Klusser speeltuin", "Voorlezen op school",
		"Begeleider wandelgroep", "Inzamelactie helper", "Website bijhouden",
		"Gastheer buurtcafé",
	}
	categories := []profile.StringSet{
		{"zorg"}, {"onderwijs"}, {"natuur"}, {"sport"}, {"techniek"},
		{"onderwijs"}, {"welzijn"}, {"evenementen"}, {"techniek"}, {"welzijn"},
	}
	vacancies := make([]Vacancy, 0, len(titles))
	for i, title := range titles {
		lat := 52.0 + r.Float64()*0.2
		lon := 4.0 + r.Float64()*0.2
		vac := Vacancy{
			ID:         uint64(i + 1),
			OrgID:      uint64(i%3 + 1),
			Title:      title,
			Skills:     skillPool[i%len(skillPool)],
			Categories: categories[i],
			Lat:        &lat,
			Lon:        &lon,
			Remote:     i%5 == 4,
			Active:     true,
			CreatedAt:  time.Now().AddDate(0, 0, -r.Intn(20)),
		}
		vacancies = append(vacancies, vac)
	}
	if err := db.Create(&vacancies).Error; err != nil {
		return fmt.Errorf("failed to seed vacancies: %w", err)
	}

	// embeddings: pseudo-random unit vectors, stable under the fixed seed
	var embeddings []Embedding
	for _, vol := range volunteers {
		embeddings = append(embeddings, Embedding{OwnerType: OwnerVolunteer, OwnerID: vol.ID, Vector: randomVector(r, embeddingDim)})
	}
	for _, vac := range vacancies {
		embeddings = append(embeddings, Embedding{OwnerType: OwnerVacancy, OwnerID: vac.ID, Vector: randomVector(r, embeddingDim)})
	}
	if err := db.Create(&embeddings).Error; err != nil {
		return fmt.Errorf("failed to seed embeddings: %w", err)
	}

	// a few prior decisions: ~70% likes
	for i := 0; i < 12; i++ {
		volID := uint64(r.Intn(len(volunteers)) + 1)
		vacID := uint64(r.Intn(len(vacancies)) + 1)
		direction := DirectionLike
		reason := "skills"
		if r.Intn(10) >= 7 {
			direction = DirectionDislike
			reason = ""
		}
		swipe := Swipe{VolunteerID: volID, VacancyID: vacID, Direction: direction, MatchReason: reason}
		if err := db.Where("volunteer_id = ? AND vacancy_id = ?", volID, vacID).
			FirstOrCreate(&swipe).Error; err != nil {
			return fmt.Errorf("failed to seed swipes: %w", err)
		}
	}

	log.Println("Seeding completed.")
	return nil
}

func randomVector(r *rand.Rand, dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(r.NormFloat64())
	}
	return vec
}
