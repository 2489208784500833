package seed

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/samber/lo"
)

type FakeType string

const (
	FakeQuote    FakeType = "quote"
	FakeCompany  FakeType = "company"
	FakePersonal FakeType = "personal"
	FakeTech     FakeType = "tech"
	FakeSocial   FakeType = "social"
	FakeWork     FakeType = "work"
	FakeMixed    FakeType = "mixed"
)

// FakeTypes lists every generator, mixed last
var FakeTypes = []FakeType{FakeQuote, FakeCompany, FakePersonal, FakeTech, FakeSocial, FakeWork, FakeMixed}

// ParseFakeType accepts any name in FakeTypes; empty means mixed
func ParseFakeType(s string) (FakeType, error) {
	if s == "" {
		return FakeMixed, nil
	}
	t := FakeType(s)
	if !lo.Contains(FakeTypes, t) {
		return "", fmt.Errorf("unknown type %q, available: %v", s, FakeTypes)
	}
	return t, nil
}

// Generator produces random message content
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a generator; seed 0 picks a random seed
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

func (g *Generator) Message(t FakeType) string {
	f := g.faker

	switch t {
	case FakeQuote:
		return f.Sentence(f.Number(8, 20))
	case FakeCompany:
		return fmt.Sprintf("Working at %s has been a great experience!", f.Company())
	case FakePersonal:
		return f.RandomString([]string{
			fmt.Sprintf("Went to %s today, the view was amazing!", f.City()),
			fmt.Sprintf("Just finished reading %q, learned a lot", f.BookTitle()),
			fmt.Sprintf("Had a great %s lunch with %s", f.Adjective(), f.FirstName()),
			fmt.Sprintf("Found a lovely coffee shop on %s", f.Street()),
			fmt.Sprintf("Picked up %s as a new hobby", f.Hobby()),
		})
	case FakeTech:
		return f.RandomString([]string{
			fmt.Sprintf("Learning %s, progress is steady", f.ProgrammingLanguage()),
			fmt.Sprintf("Solved a tricky %s problem today", f.Word()),
			fmt.Sprintf("Attended a talk on %s %s, learned a lot", f.BuzzWord(), f.Noun()),
			fmt.Sprintf("Ran into an interesting challenge building a %s app", f.AppName()),
			fmt.Sprintf("Switching to %s made me much faster", f.AppName()),
		})
	case FakeSocial:
		return fmt.Sprintf("Spent a lovely %s in %s with friends", f.WeekDay(), f.City())
	case FakeWork:
		return fmt.Sprintf("Today's %s project meeting was productive, great teamwork!", f.Word())
	default:
		kinds := lo.Without(FakeTypes, FakeMixed)
		return g.Message(kinds[f.IntN(len(kinds))])
	}
}

// Messages generates count messages of one type
func (g *Generator) Messages(count int, t FakeType) []string {
	return lo.Times(count, func(int) string {
		return g.Message(t)
	})
}
