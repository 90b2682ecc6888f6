package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
)

// removeFavoriteAttempts bounds the read-then-conditional-remove loop.
const removeFavoriteAttempts = 5

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	account.ID = uuid.NewString()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}
	if account.Favorites == nil {
		account.Favorites = []string{}
	}

	item, err := attributevalue.MarshalMap(fromAccount(account))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	puts := []types.TransactWriteItem{{Put: &types.Put{
		TableName:           aws.String(s.accountsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	}}}
	for _, pk := range []string{usernameKey(account.Username), emailKey(account.Email)} {
		put, err := s.uniquePut(pk, account.ID)
		if err != nil {
			return err
		}
		puts = append(puts, put)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: puts})
	if err != nil {
		if codes := cancellationCodes(err); codes != nil {
			return store.ErrDuplicate
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) uniquePut(pk, accountID string) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(uniqueItem{PK: pk, Kind: kindUnique, AccountID: accountID})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal failed: %w", err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:           aws.String(s.accountsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	}}, nil
}

func (s *Store) uniqueDelete(pk string) types.TransactWriteItem {
	return types.TransactWriteItem{Delete: &types.Delete{
		TableName: aws.String(s.accountsTable),
		Key:       stringKey(pk),
	}}
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.accountsTable),
		Key:            stringKey(accountKey(id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	return item.toAccount(), nil
}

// GetAccountByEmail resolves the email sentinel, then the account.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.accountsTable),
		Key:            stringKey(emailKey(email)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get email sentinel: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}

	var sentinel uniqueItem
	if err := attributevalue.UnmarshalMap(out.Item, &sentinel); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	return s.GetAccount(ctx, sentinel.AccountID)
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	items, err := s.scanAll(ctx, s.accountScan())
	if err != nil {
		return nil, err
	}

	var decoded []accountItem
	if err := attributevalue.UnmarshalListOfMaps(items, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	accounts := make([]models.Account, 0, len(decoded))
	for i := range decoded {
		accounts = append(accounts, *decoded[i].toAccount())
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].CreatedAt.Before(accounts[j].CreatedAt) })
	return accounts, nil
}

func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	return s.countAll(ctx, s.accountScan())
}

func (s *Store) accountScan() *dynamodb.ScanInput {
	return &dynamodb.ScanInput{
		TableName:                aws.String(s.accountsTable),
		FilterExpression:         aws.String("#kind = :kind"),
		ExpressionAttributeNames: map[string]string{"#kind": "kind"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kind": &types.AttributeValueMemberS{Value: kindAccount},
		},
	}
}

// UpdateAccount applies the patch and moves the uniqueness sentinels of a
// changed username or email in the same transaction.
func (s *Store) UpdateAccount(ctx context.Context, id string, patch models.AccountPatch) (*models.Account, error) {
	current, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	var update expression.UpdateBuilder
	changed := false
	set := func(attr string, value interface{}) {
		update = update.Set(expression.Name(attr), expression.Value(value))
		changed = true
	}
	if patch.Username != nil && *patch.Username != current.Username {
		set("username", *patch.Username)
	}
	if patch.Email != nil && *patch.Email != current.Email {
		set("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.Age != nil {
		set("age", *patch.Age)
	}
	if patch.Gender != nil {
		set("gender", string(*patch.Gender))
	}
	if patch.FavoriteGenres != nil {
		set("favorite_genres", patch.FavoriteGenres)
	}
	if patch.IsAdmin != nil {
		set("is_admin", *patch.IsAdmin)
	}
	if !changed {
		return current, nil
	}

	exists := itemExists()
	expr, err := buildUpdate(update, &exists)
	if err != nil {
		return nil, fmt.Errorf("build account update: %w", err)
	}

	items := []types.TransactWriteItem{{Update: &types.Update{
		TableName:                 aws.String(s.accountsTable),
		Key:                       stringKey(accountKey(id)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}}}
	if patch.Username != nil && *patch.Username != current.Username {
		put, err := s.uniquePut(usernameKey(*patch.Username), id)
		if err != nil {
			return nil, err
		}
		items = append(items, put, s.uniqueDelete(usernameKey(current.Username)))
	}
	if patch.Email != nil && *patch.Email != current.Email {
		put, err := s.uniquePut(emailKey(*patch.Email), id)
		if err != nil {
			return nil, err
		}
		items = append(items, put, s.uniqueDelete(emailKey(current.Email)))
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if codes := cancellationCodes(err); codes != nil {
			// the first item is the account update itself
			if len(codes) > 0 && codes[0] == "ConditionalCheckFailed" {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	current, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(s.accountsTable),
				Key:                 stringKey(accountKey(id)),
				ConditionExpression: aws.String("attribute_exists(pk)"),
			}},
			s.uniqueDelete(usernameKey(current.Username)),
			s.uniqueDelete(emailKey(current.Email)),
		},
	})
	if err != nil {
		if cancellationCodes(err) != nil {
			return store.ErrNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// AddFavorite appends ref to the favorites list in one conditional update.
func (s *Store) AddFavorite(ctx context.Context, accountID, ref string) error {
	favorites := expression.Name("favorites")
	update := expression.Set(favorites, expression.ListAppend(
		expression.IfNotExists(favorites, expression.Value([]string{})),
		expression.Value([]string{ref}),
	))
	cond := itemExists().And(expression.Not(expression.Contains(favorites, ref)))
	expr, err := buildUpdate(update, &cond)
	if err != nil {
		return fmt.Errorf("build favorite update: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.accountsTable),
		Key:                       stringKey(accountKey(accountID)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err == nil {
		return nil
	}
	if !isConditionFailed(err) {
		return fmt.Errorf("add favorite: %w", err)
	}

	if _, getErr := s.GetAccount(ctx, accountID); getErr != nil {
		return getErr
	}
	return store.ErrAlreadyExists
}

// RemoveFavorite removes ref by index, conditioned on the element still
// being ref at that index. A concurrent change makes it re-read and retry.
func (s *Store) RemoveFavorite(ctx context.Context, accountID, ref string) error {
	for attempt := 0; attempt < removeFavoriteAttempts; attempt++ {
		acc, err := s.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		idx := -1
		for i, f := range acc.Favorites {
			if f == ref {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}

		element := expression.Name(fmt.Sprintf("favorites[%d]", idx))
		cond := element.Equal(expression.Value(ref))
		expr, err := buildUpdate(expression.Remove(element), &cond)
		if err != nil {
			return fmt.Errorf("build favorite removal: %w", err)
		}

		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.accountsTable),
			Key:                       stringKey(accountKey(accountID)),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err == nil {
			return nil
		}
		if !isConditionFailed(err) {
			return fmt.Errorf("remove favorite: %w", err)
		}
	}
	return fmt.Errorf("remove favorite: too much contention on account %s", accountID)
}
