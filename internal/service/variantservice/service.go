package variantservice

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
)

const priceUpdateReason = "variant price update"

// Repository é o contrato de persistência usado pelo motor de variantes.
// Todas as alterações acontecem dentro de WithinTx.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.VariantTx) error) error
	EnsureProduct(ctx context.Context, productID int64) error
	GetVariant(ctx context.Context, variantID int64) (domain.Variant, error)
	ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error)
	ListOptions(ctx context.Context, productID int64) ([]domain.VariantOption, error)
}

// SummaryReader lê o agregado de variantes (queryrepo).
type SummaryReader interface {
	VariantSummary(ctx context.Context, productID int64) (domain.VariantSummary, error)
}

// PriceRecorder grava o histórico de preços na transação corrente.
type PriceRecorder interface {
	Record(ctx context.Context, w domain.PriceHistoryWriter, change domain.PriceChange) (bool, error)
}

// VariantService aplica as regras de variantes: opções, SKU, preços,
// variante padrão única e exclusão lógica.
type VariantService struct {
	repo      Repository
	summaries SummaryReader
	recorder  PriceRecorder
	logger    logger.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService cria o serviço de variantes. m pode ser nil.
func NewService(repo Repository, summaries SummaryReader, recorder PriceRecorder, logger logger.Logger, m *metrics.Metrics) *VariantService {
	return &VariantService{
		repo:      repo,
		summaries: summaries,
		recorder:  recorder,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("gocatalog/variantservice"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *VariantService) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish fecha o span e contabiliza a operação.
func (s *VariantService) finish(span trace.Span, operation string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.CatalogOperation("variant", operation, err)
}

// DefineOptions substitui as opções de variação do produto. Não é permitido
// enquanto existir alguma variante ativa.
func (s *VariantService) DefineOptions(ctx context.Context, productID int64, inputs []domain.VariantOptionInput) (options []domain.VariantOption, err error) {
	ctx, span := s.start(ctx, "variant.DefineOptions", attribute.Int64("product.id", productID))
	defer func() { s.finish(span, "define_options", err) }()

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.VariantTx) error {
		var txErr error
		options, txErr = s.defineOptions(ctx, tx, productID, inputs)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Opções de variação definidas.", map[string]interface{}{"product_id": productID, "options": len(options)})
	return options, nil
}

func (s *VariantService) defineOptions(ctx context.Context, tx domain.VariantTx, productID int64, inputs []domain.VariantOptionInput) ([]domain.VariantOption, error) {
	if _, err := tx.LockProduct(ctx, productID); err != nil {
		return nil, err
	}

	options, err := normalizeOptions(inputs)
	if err != nil {
		return nil, err
	}

	variants, err := tx.ListVariants(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if v.IsActive {
			return nil, apperror.NewConflictError(fmt.Sprintf(
				"O produto %d possui variantes ativas; desative-as antes de alterar as opções.", productID))
		}
	}

	return tx.ReplaceOptions(ctx, productID, options)
}

// CreateVariant cria uma variante. A primeira variante do produto (ou uma
// pedida como padrão) passa a ser a padrão.
func (s *VariantService) CreateVariant(ctx context.Context, productID int64, input domain.VariantInput) (variant domain.Variant, err error) {
	ctx, span := s.start(ctx, "variant.Create",
		attribute.Int64("product.id", productID), attribute.String("variant.sku", input.SKU))
	defer func() { s.finish(span, "create", err) }()

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.VariantTx) error {
		var txErr error
		variant, txErr = s.createVariant(ctx, tx, productID, input)
		return txErr
	})
	if err != nil {
		return domain.Variant{}, err
	}

	s.logger.Info("Variante criada.", map[string]interface{}{
		"variant_id": variant.ID, "product_id": productID, "sku": variant.SKU, "is_default": variant.IsDefault,
	})
	return variant, nil
}

func (s *VariantService) createVariant(ctx context.Context, tx domain.VariantTx, productID int64, input domain.VariantInput) (domain.Variant, error) {
	if _, err := tx.LockProduct(ctx, productID); err != nil {
		return domain.Variant{}, err
	}
	if err := validateVariantFields(input); err != nil {
		return domain.Variant{}, err
	}

	options, err := tx.ListOptions(ctx, productID)
	if err != nil {
		return domain.Variant{}, err
	}
	if err := validateOptionValues(options, input.OptionValues); err != nil {
		return domain.Variant{}, err
	}

	taken, err := tx.SKUTaken(ctx, input.SKU, 0)
	if err != nil {
		return domain.Variant{}, err
	}
	if taken {
		return domain.Variant{}, skuConflict(input.SKU)
	}

	existing, err := tx.ListVariants(ctx, productID)
	if err != nil {
		return domain.Variant{}, err
	}
	makeDefault := len(existing) == 0 || input.IsDefault
	if makeDefault && len(existing) > 0 {
		if err := tx.ClearDefault(ctx, productID); err != nil {
			return domain.Variant{}, err
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	return tx.InsertVariant(ctx, domain.Variant{
		ProductID:         productID,
		SKU:               input.SKU,
		Price:             input.Price,
		CompareAtPrice:    input.CompareAtPrice,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: input.LowStockThreshold,
		OptionValues:      copyValues(input.OptionValues),
		IsDefault:         makeDefault,
		IsActive:          isActive,
		DisplayOrder:      input.DisplayOrder,
	})
}

// CreateVariantsBulk substitui as opções quando input.Options não é vazio e
// cria as variantes na ordem recebida, parando no primeiro erro. Com
// input.Options vazio as opções atuais são mantidas e as variantes são
// validadas contra elas; ao contrário de DefineOptions com lista vazia,
// nada é apagado. As duas fases não são atômicas entre si; por isso todas
// as entradas são conferidas contra as opções e contra SKUs repetidos no
// lote antes de qualquer escrita.
func (s *VariantService) CreateVariantsBulk(ctx context.Context, productID int64, input domain.BulkVariantsInput) (created []domain.Variant, err error) {
	ctx, span := s.start(ctx, "variant.CreateBulk",
		attribute.Int64("product.id", productID), attribute.Int("variants.count", len(input.Variants)))
	defer func() { s.finish(span, "create_bulk", err) }()

	if err = s.repo.EnsureProduct(ctx, productID); err != nil {
		return nil, err
	}

	var options []domain.VariantOption
	if len(input.Options) > 0 {
		if options, err = normalizeOptions(input.Options); err != nil {
			return nil, err
		}
	} else if options, err = s.repo.ListOptions(ctx, productID); err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(input.Variants))
	for i, v := range input.Variants {
		if err = validateVariantFields(v); err != nil {
			return nil, err
		}
		if err = validateOptionValues(options, v.OptionValues); err != nil {
			return nil, err
		}
		if first, dup := seen[v.SKU]; dup {
			err = apperror.NewConflictError(fmt.Sprintf("SKU '%s' repetido no lote (itens %d e %d).", v.SKU, first, i))
			return nil, err
		}
		seen[v.SKU] = i
	}

	if len(input.Options) > 0 {
		if _, err = s.DefineOptions(ctx, productID, input.Options); err != nil {
			return nil, err
		}
	}

	created = make([]domain.Variant, 0, len(input.Variants))
	for i, v := range input.Variants {
		variant, createErr := s.CreateVariant(ctx, productID, v)
		if createErr != nil {
			s.logger.Warn("Criação em lote interrompida.", map[string]interface{}{
				"product_id": productID, "index": i, "created": len(created),
			})
			err = createErr
			return nil, err
		}
		created = append(created, variant)
	}
	return created, nil
}

// UpdateVariant altera uma variante. Mudança de preço gera uma linha de
// histórico na mesma transação, com changed_by = caller.UserID.
func (s *VariantService) UpdateVariant(ctx context.Context, caller domain.Caller, variantID int64, input domain.VariantInput) (variant domain.Variant, err error) {
	ctx, span := s.start(ctx, "variant.Update", attribute.Int64("variant.id", variantID))
	defer func() { s.finish(span, "update", err) }()

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.VariantTx) error {
		var txErr error
		variant, txErr = s.updateVariant(ctx, tx, caller, variantID, input)
		return txErr
	})
	if err != nil {
		return domain.Variant{}, err
	}

	s.logger.Info("Variante atualizada.", map[string]interface{}{"variant_id": variant.ID, "changed_by": caller.UserID})
	return variant, nil
}

func (s *VariantService) updateVariant(ctx context.Context, tx domain.VariantTx, caller domain.Caller, variantID int64, input domain.VariantInput) (domain.Variant, error) {
	current, err := tx.GetVariant(ctx, variantID)
	if err != nil {
		return domain.Variant{}, err
	}
	if _, err := tx.LockProduct(ctx, current.ProductID); err != nil {
		return domain.Variant{}, err
	}
	// Relê sob o lock do produto.
	if current, err = tx.GetVariant(ctx, variantID); err != nil {
		return domain.Variant{}, err
	}

	if err := validateVariantFields(input); err != nil {
		return domain.Variant{}, err
	}

	if input.SKU != current.SKU {
		taken, err := tx.SKUTaken(ctx, input.SKU, current.ID)
		if err != nil {
			return domain.Variant{}, err
		}
		if taken {
			return domain.Variant{}, skuConflict(input.SKU)
		}
	}

	updated := current
	updated.SKU = input.SKU
	updated.Price = input.Price
	updated.CompareAtPrice = input.CompareAtPrice
	updated.StockQuantity = input.StockQuantity
	updated.LowStockThreshold = input.LowStockThreshold
	updated.DisplayOrder = input.DisplayOrder
	if input.IsActive != nil {
		updated.IsActive = *input.IsActive
	}

	valuesChanged := input.OptionValues != nil && !maps.Equal(input.OptionValues, current.OptionValues)
	if valuesChanged {
		updated.OptionValues = copyValues(input.OptionValues)
	}
	// Variantes inativas podem guardar valores de opções já redefinidas;
	// só voltam a ficar ativas com valores válidos.
	if valuesChanged || updated.IsActive {
		options, err := tx.ListOptions(ctx, current.ProductID)
		if err != nil {
			return domain.Variant{}, err
		}
		if err := validateOptionValues(options, updated.OptionValues); err != nil {
			return domain.Variant{}, err
		}
	}

	switch {
	case input.IsDefault && !current.IsDefault:
		if err := tx.ClearDefault(ctx, current.ProductID); err != nil {
			return domain.Variant{}, err
		}
		updated.IsDefault = true
	case !input.IsDefault && current.IsDefault:
		// Sem substituta o produto ficaria sem padrão: o pedido é ignorado.
		s.logger.Warn("Remoção da variante padrão sem substituta ignorada.", map[string]interface{}{
			"variant_id": current.ID, "product_id": current.ProductID,
		})
	}

	saved, err := tx.UpdateVariant(ctx, updated)
	if err != nil {
		return domain.Variant{}, err
	}

	id := saved.ID
	_, err = s.recorder.Record(ctx, tx, domain.PriceChange{
		ProductID: saved.ProductID,
		VariantID: &id,
		OldPrice:  current.Price,
		NewPrice:  saved.Price,
		Reason:    priceUpdateReason,
		ChangedBy: caller.UserID,
	})
	if err != nil {
		return domain.Variant{}, err
	}
	return saved, nil
}

// DeleteVariant exclui logicamente a variante. Se ela era a padrão, a
// variante ativa restante de menor ordem de exibição (empate: menor id) é
// promovida; sem ativas, a primeira inativa restante.
func (s *VariantService) DeleteVariant(ctx context.Context, variantID int64) (err error) {
	ctx, span := s.start(ctx, "variant.Delete", attribute.Int64("variant.id", variantID))
	defer func() { s.finish(span, "delete", err) }()

	var promoted int64
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.VariantTx) error {
		v, err := tx.GetVariant(ctx, variantID)
		if err != nil {
			return err
		}
		if _, err := tx.LockProduct(ctx, v.ProductID); err != nil {
			return err
		}
		if v, err = tx.GetVariant(ctx, variantID); err != nil {
			return err
		}

		if err := tx.SoftDeleteVariant(ctx, variantID, s.now()); err != nil {
			return err
		}
		if !v.IsDefault {
			return nil
		}

		remaining, err := tx.ListVariants(ctx, v.ProductID)
		if err != nil {
			return err
		}
		next, ok := nextDefault(remaining)
		if !ok {
			return nil
		}
		promoted = next.ID
		return tx.SetDefault(ctx, next.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Variante excluída.", map[string]interface{}{"variant_id": variantID, "promoted_default": promoted})
	return nil
}

// nextDefault escolhe a nova padrão em uma lista já ordenada por
// display_order, id.
func nextDefault(remaining []domain.Variant) (domain.Variant, bool) {
	for _, v := range remaining {
		if v.IsActive {
			return v, true
		}
	}
	if len(remaining) > 0 {
		return remaining[0], true
	}
	return domain.Variant{}, false
}

// UpdateStock sobrescreve o estoque da variante.
func (s *VariantService) UpdateStock(ctx context.Context, variantID int64, stock int) (variant domain.Variant, err error) {
	ctx, span := s.start(ctx, "variant.UpdateStock", attribute.Int64("variant.id", variantID), attribute.Int("stock", stock))
	defer func() { s.finish(span, "update_stock", err) }()

	if stock < 0 {
		err = apperror.NewValidationError("O estoque não pode ser negativo.")
		return domain.Variant{}, err
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.VariantTx) error {
		v, err := tx.GetVariant(ctx, variantID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStock(ctx, variantID, stock); err != nil {
			return err
		}
		v.StockQuantity = stock
		variant = v
		return nil
	})
	if err != nil {
		return domain.Variant{}, err
	}
	return variant, nil
}

// --- Leituras ---

func (s *VariantService) GetVariant(ctx context.Context, variantID int64) (domain.Variant, error) {
	return s.repo.GetVariant(ctx, variantID)
}

// ListVariants devolve as variantes não excluídas em ordem de exibição.
func (s *VariantService) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	if err := s.repo.EnsureProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListVariants(ctx, productID)
}

func (s *VariantService) GetOptions(ctx context.Context, productID int64) ([]domain.VariantOption, error) {
	if err := s.repo.EnsureProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListOptions(ctx, productID)
}

// GetDefaultVariant devolve a variante padrão; NotFound se o produto não tem variantes.
func (s *VariantService) GetDefaultVariant(ctx context.Context, productID int64) (domain.Variant, error) {
	variants, err := s.ListVariants(ctx, productID)
	if err != nil {
		return domain.Variant{}, err
	}
	for _, v := range variants {
		if v.IsDefault {
			return v, nil
		}
	}
	return domain.Variant{}, apperror.NewNotFoundError(fmt.Sprintf("O produto %d não possui variante padrão", productID))
}

// Summary devolve o agregado de variantes do produto.
func (s *VariantService) Summary(ctx context.Context, productID int64) (domain.VariantSummary, error) {
	ctx, span := s.start(ctx, "variant.Summary", attribute.Int64("product.id", productID))
	defer span.End()

	if err := s.repo.EnsureProduct(ctx, productID); err != nil {
		return domain.VariantSummary{}, err
	}
	return s.summaries.VariantSummary(ctx, productID)
}

// --- Regras de validação ---

func normalizeOptions(inputs []domain.VariantOptionInput) ([]domain.VariantOption, error) {
	if len(inputs) > domain.MaxVariantOptions {
		return nil, apperror.NewValidationErrorf("Um produto aceita no máximo %d opções de variação.", domain.MaxVariantOptions)
	}

	options := make([]domain.VariantOption, 0, len(inputs))
	names := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, apperror.NewValidationError("O nome da opção é obrigatório.")
		}
		if names[name] {
			return nil, apperror.NewValidationErrorf("Opção '%s' repetida.", name)
		}
		names[name] = true

		if len(in.Values) == 0 {
			return nil, apperror.NewValidationErrorf("A opção '%s' precisa de pelo menos um valor.", name)
		}
		if len(in.Values) > domain.MaxOptionValues {
			return nil, apperror.NewValidationErrorf("A opção '%s' aceita no máximo %d valores.", name, domain.MaxOptionValues)
		}

		values := make([]string, 0, len(in.Values))
		seen := make(map[string]bool, len(in.Values))
		for _, raw := range in.Values {
			value := strings.TrimSpace(raw)
			if value == "" {
				return nil, apperror.NewValidationErrorf("A opção '%s' tem um valor em branco.", name)
			}
			if seen[value] {
				return nil, apperror.NewValidationErrorf("Valor '%s' repetido na opção '%s'.", value, name)
			}
			seen[value] = true
			values = append(values, value)
		}
		options = append(options, domain.VariantOption{Name: name, Values: values})
	}
	return options, nil
}

func validateVariantFields(in domain.VariantInput) error {
	if !domain.ValidSKU(in.SKU) {
		return apperror.NewValidationErrorf("SKU '%s' inválido: use apenas A-Z, 0-9 e '-'.", in.SKU)
	}
	if !in.Price.IsPositive() {
		return apperror.NewValidationError("O preço deve ser maior que zero.")
	}
	if in.CompareAtPrice != nil && !in.CompareAtPrice.GreaterThan(in.Price) {
		return apperror.NewValidationErrorf("O preço de comparação (%s) deve ser maior que o preço (%s).",
			in.CompareAtPrice.String(), in.Price.String())
	}
	if in.StockQuantity < 0 {
		return apperror.NewValidationError("O estoque não pode ser negativo.")
	}
	if in.LowStockThreshold < 0 {
		return apperror.NewValidationError("O limite de estoque baixo não pode ser negativo.")
	}
	return nil
}

func validateOptionValues(options []domain.VariantOption, values map[string]string) error {
	byName := make(map[string]domain.VariantOption, len(options))
	for _, o := range options {
		byName[o.Name] = o
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		option, ok := byName[name]
		if !ok {
			return apperror.NewValidationErrorf("A opção '%s' não está definida para este produto.", name)
		}
		if !option.Allows(values[name]) {
			return apperror.NewValidationErrorf("O valor '%s' não é permitido para a opção '%s'.", values[name], name)
		}
	}
	return nil
}

func skuConflict(sku string) error {
	return apperror.NewConflictError(fmt.Sprintf("O SKU '%s' já está em uso.", sku))
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	maps.Copy(out, values)
	return out
}
