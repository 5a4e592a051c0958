package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastetrail/internal/analysis"
	"tastetrail/internal/model"
	"tastetrail/internal/questions"
	"tastetrail/internal/repository"
)

// Seeds a couple of movies with one completed reflection session each, then
// runs a detection pass directly so the API serves patterns on first boot.
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "tastetrail"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	movieRepo := repository.NewMovieRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	patternRepo := repository.NewPatternRepo(db)

	lexicon := analysis.NewLexicon()
	classifier := analysis.NewClassifier(lexicon)
	aggregator := analysis.NewAggregator(lexicon, analysis.RandomPick)

	bank, err := questions.Load()
	if err != nil {
		log.Fatalf("Failed to load question bank: %v", err)
	}

	movies := []struct {
		title       string
		year        int
		reflections map[string]string
	}{
		{
			title: "The Social Network",
			year:  2010,
			reflections: map[string]string{
				"first_memory":       "The opening breakup scene in the bar, where the dialogue moves so fast I had to rewind it. Rooney Mara's delivery of the last line landed like a slap, and the film hadn't even started yet.",
				"attention_captured": "The dialogue was incredible throughout. Sorkin's rapid-fire exchanges during the deposition scenes made me lean forward, because every line was doing two things at once.",
				"craft_appreciation": "I found the color grading too aggressive and cold. Every interior looked like it was lit through a glass of whiskey, and in the regatta sequence it took me out of the film completely.",
				"emotional_impact":   "The last shot of him refreshing the friend request page hit me hard. I remember the exact feeling of recognizing that loneliness, because I have sat in front of a screen like that.",
			},
		},
		{
			title: "Before Sunrise",
			year:  1995,
			reflections: map[string]string{
				"first_memory":       "The listening booth scene in the record store, where they keep stealing glances and looking away. Neither says a word for the whole song and it is the most articulate scene in the film.",
				"attention_captured": "The dialogue carried everything. Their conversation about his grandmother's ghost felt improvised but precise, because each exchange revealed exactly one more layer of who they were.",
				"craft_appreciation": "The low lighting in the night scenes felt murky rather than romantic. In the cemetery at dusk I could barely read their faces, and the color timing flattened what should have been the emotional peak.",
				"emotional_impact":   "When the sun came up over the canal I felt the ending arriving before either of them admitted it. That specific dread of a good thing ending stayed with me for days afterwards.",
			},
		},
	}

	now := time.Now()
	var responses []*model.Response

	for i, m := range movies {
		movie := &model.Movie{
			Title:     m.title,
			Year:      m.year,
			WatchedAt: timePtr(now.AddDate(0, 0, -7*(i+1))),
			CreatedAt: now,
		}
		movieID, err := movieRepo.Create(ctx, movie)
		if err != nil {
			log.Fatalf("Failed to create movie %q: %v", m.title, err)
		}
		log.Printf("Created movie %q (%s)", m.title, movieID)

		completed := now.AddDate(0, 0, -i)
		session := &model.Session{
			MovieIDs:      []string{movieID},
			Type:          model.SessionDeepDive,
			Status:        model.SessionCompleted,
			Phase:         model.PhaseEvaluation,
			QuestionIndex: len(m.reflections),
			StartedAt:     completed.Add(-45 * time.Minute),
			CompletedAt:   &completed,
		}
		sessionID, err := sessionRepo.Create(ctx, session)
		if err != nil {
			log.Fatalf("Failed to create session for %q: %v", m.title, err)
		}

		for questionKey, text := range m.reflections {
			q := bank.Get(questionKey)
			if q == nil {
				log.Fatalf("Unknown question key %q", questionKey)
			}
			a := classifier.Classify(text)
			resp := &model.Response{
				SessionID:        sessionID,
				MovieID:          movieID,
				QuestionKey:      questionKey,
				QuestionText:     questions.Render(q, m.title),
				Phase:            q.Phase,
				Text:             text,
				Confidence:       4,
				IsVague:          a.IsVague,
				VaguenessType:    a.VaguenessType,
				SpecificityScore: a.SpecificityScore,
				CreatedAt:        completed,
			}
			if _, err := responseRepo.Create(ctx, resp); err != nil {
				log.Fatalf("Failed to create response: %v", err)
			}
			responses = append(responses, resp)
		}
	}

	patterns := aggregator.DetectPatterns(responses, len(movies), nil)
	if err := patternRepo.ReplaceAll(ctx, patterns); err != nil {
		log.Fatalf("Failed to store patterns: %v", err)
	}

	log.Printf("Seeded %d movies, %d responses, %d patterns", len(movies), len(responses), len(patterns))
	for _, p := range patterns {
		log.Printf("  pattern %s (%s/%s) confidence=%.2f", p.Element, p.Type, p.Sentiment, p.Confidence)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
