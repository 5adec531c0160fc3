package classifier

import (
	"fmt"
	"strings"

	"github.com/jbrukh/bayesian"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

const (
	classPositive bayesian.Class = bayesian.Class(domain.LabelPositive)
	classNegative bayesian.Class = bayesian.Class(domain.LabelNegative)
	classNeutral  bayesian.Class = bayesian.Class(domain.LabelNeutral)
)

// Engine trains Naive Bayes models over (text, label) pairs and round-trips
// them through gob snapshot files.
type Engine struct{}

var _ ports.Trainer = (*Engine)(nil)

// NewEngine returns a stateless trainer; models it produces are immutable.
func NewEngine() *Engine {
	return &Engine{}
}

// Train builds a fresh three-class model from the given examples.
func (e *Engine) Train(examples []ports.TrainingPair) (ports.Model, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples")
	}

	c := bayesian.NewClassifier(classPositive, classNegative, classNeutral)
	for _, example := range examples {
		switch example.Label {
		case domain.LabelPositive, domain.LabelNegative, domain.LabelNeutral:
		default:
			return nil, fmt.Errorf("unknown label %q", example.Label)
		}
		c.Learn(tokenize(example.Text), bayesian.Class(example.Label))
	}

	return &model{classifier: c}, nil
}

// LoadSnapshot restores a previously trained model from path.
func (e *Engine) LoadSnapshot(path string) (ports.Model, error) {
	c, err := bayesian.NewClassifierFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load classifier snapshot: %w", err)
	}
	return &model{classifier: c}, nil
}

// SaveSnapshot serializes a trained model to path.
func (e *Engine) SaveSnapshot(m ports.Model, path string) error {
	bm, ok := m.(*model)
	if !ok {
		return fmt.Errorf("unsupported model type %T", m)
	}
	if err := bm.classifier.WriteToFile(path); err != nil {
		return fmt.Errorf("write classifier snapshot: %w", err)
	}
	return nil
}

// model wraps a trained bayesian classifier. It is never mutated after Train.
type model struct {
	classifier *bayesian.Classifier
}

var _ ports.Model = (*model)(nil)

// Classify returns the winning class for the given text.
func (m *model) Classify(text string) domain.Label {
	_, idx, _ := m.classifier.LogScores(tokenize(text))
	return domain.Label(m.classifier.Classes[idx])
}

func tokenize(text string) []string {
	return strings.Fields(text)
}
