package brdoc_test

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"clientes/pkg/brdoc"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTaxID appends both check digits to nine base digits.
func buildTaxID(base string) string {
	digit := func(d string, w int) string {
		sum := 0
		for i := range d {
			sum += int(d[i]-'0') * (w - i)
		}
		r := (sum * 10) % 11
		if r >= 10 {
			r = 0
		}
		return strconv.Itoa(r)
	}
	withFirst := base + digit(base, 10)
	return withFirst + digit(withFirst, 11)
}

func TestIsValidTaxID_KnownValues(t *testing.T) {
	assert.True(t, brdoc.IsValidTaxID("52998224725"))
	assert.True(t, brdoc.IsValidTaxID("529.982.247-25"))
	assert.True(t, brdoc.IsValidTaxID("111.444.777-35"))

	assert.False(t, brdoc.IsValidTaxID("529.982.247-26"))
	assert.False(t, brdoc.IsValidTaxID("5299822472"))
	assert.False(t, brdoc.IsValidTaxID("529982247250"))
	assert.False(t, brdoc.IsValidTaxID("529982247259"))
	assert.False(t, brdoc.IsValidTaxID("529.982.247-259"))
	assert.False(t, brdoc.IsValidTaxID(""))
}

func TestIsValidTaxID_RepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		assert.False(t, brdoc.IsValidTaxID(strings.Repeat(string(d), 11)), "digit %c", d)
	}
}

func TestIsValidTaxID_GeneratedAndMutated(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	mutations, rejected := 0, 0

	for n := 0; n < 500; n++ {
		var b strings.Builder
		for i := 0; i < 9; i++ {
			b.WriteByte(byte('0' + rng.IntN(10)))
		}
		base := b.String()
		if strings.Count(base, base[:1]) == 9 {
			continue
		}
		cpf := buildTaxID(base)
		require.True(t, brdoc.IsValidTaxID(cpf), "generated %s", cpf)

		pos := rng.IntN(11)
		shift := 1 + rng.IntN(9)
		mutated := []byte(cpf)
		mutated[pos] = byte('0' + (int(mutated[pos]-'0')+shift)%10)
		mutations++
		if !brdoc.IsValidTaxID(string(mutated)) {
			rejected++
		}
	}

	assert.Greater(t, float64(rejected)/float64(mutations), 0.9)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, brdoc.IsValidEmail("a@b.com"))
	assert.True(t, brdoc.IsValidEmail("maria.silva@empresa.com.br"))
	assert.False(t, brdoc.IsValidEmail("a@b"))
	assert.False(t, brdoc.IsValidEmail("a.b.com"))
	assert.False(t, brdoc.IsValidEmail("a b@c.com"))
	assert.False(t, brdoc.IsValidEmail("a@@b.com"))
	assert.False(t, brdoc.IsValidEmail(""))
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	require.NoError(t, brdoc.RegisterValidations(v))

	type form struct {
		TaxID string `validate:"cpf"`
		CEP   string `validate:"omitempty,cep"`
		Phone string `validate:"omitempty,br_phone"`
	}

	assert.NoError(t, v.Struct(form{TaxID: "529.982.247-25", CEP: "01310-930", Phone: "(11) 98765-4321"}))

	err := v.Struct(form{TaxID: "111.111.111-11", CEP: "0131", Phone: "1198"})
	require.Error(t, err)
	var tags []string
	for _, fe := range err.(validator.ValidationErrors) {
		tags = append(tags, fe.Tag())
	}
	assert.ElementsMatch(t, []string{"cpf", "cep", "br_phone"}, tags)
}
