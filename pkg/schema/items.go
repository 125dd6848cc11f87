package schema

import "fmt"

// Item kinds recognized by the merger.
const (
	GameItem   = "GameItem"
	UserItem   = "UserItem"
	RatingItem = "RatingItem"
)

var imageFile = List(Struct(
	Field{"url", String()},
	Field{"path", String()},
	Field{"checksum", String()},
))

var imageBlurhash = List(Struct(
	Field{"url", String()},
	Field{"path", String()},
	Field{"checksum", String()},
	Field{"blurhash", String()},
))

// GameItemSchema declares the fields of one scraped game record.
var GameItemSchema = New(
	Field{"name", String()},
	Field{"alt_name", List(String())},
	Field{"year", Int()},
	Field{"game_type", List(String())},
	Field{"description", String()},
	Field{"designer", List(String())},
	Field{"artist", List(String())},
	Field{"publisher", List(String())},
	Field{"url", String()},
	Field{"official_url", List(String())},
	Field{"image_url", List(String())},
	Field{"image_url_download", List(String())},
	Field{"image_file", imageFile},
	Field{"image_blurhash", imageBlurhash},
	Field{"video_url", List(String())},
	Field{"rules_url", List(String())},
	Field{"rules_file", imageFile},
	Field{"review_url", List(String())},
	Field{"external_link", List(String())},
	Field{"list_price", String()},
	Field{"min_players", Int()},
	Field{"max_players", Int()},
	Field{"min_players_rec", Int()},
	Field{"max_players_rec", Int()},
	Field{"min_players_best", Int()},
	Field{"max_players_best", Int()},
	Field{"min_age", Int()},
	Field{"max_age", Int()},
	Field{"min_age_rec", Float()},
	Field{"max_age_rec", Float()},
	Field{"min_time", Int()},
	Field{"max_time", Int()},
	Field{"category", List(String())},
	Field{"mechanic", List(String())},
	Field{"cooperative", Bool()},
	Field{"compilation", Bool()},
	Field{"family", List(String())},
	Field{"expansion", List(String())},
	Field{"implementation", List(Int())},
	Field{"integration", List(Int())},
	Field{"rank", Int()},
	Field{"add_rank", List(Struct(
		Field{"game_type", String()},
		Field{"game_type_id", Int()},
		Field{"name", String()},
		Field{"rank", Int()},
		Field{"bayes_rating", Float()},
	))},
	Field{"num_votes", Int()},
	Field{"avg_rating", Float()},
	Field{"stddev_rating", Float()},
	Field{"bayes_rating", Float()},
	Field{"worst_rating", Int()},
	Field{"best_rating", Int()},
	Field{"complexity", Float()},
	Field{"easiest_complexity", Int()},
	Field{"hardest_complexity", Int()},
	Field{"language_dependency", Float()},
	Field{"lowest_language_dependency", Int()},
	Field{"highest_language_dependency", Int()},
	Field{"bgg_id", Int()},
	Field{"freebase_id", String()},
	Field{"wikidata_id", String()},
	Field{"wikipedia_id", String()},
	Field{"dbpedia_id", String()},
	Field{"luding_id", Int()},
	Field{"spielen_id", String()},
	Field{"published_at", String()},
	Field{"updated_at", String()},
	Field{"scraped_at", String()},
)

// UserItemSchema declares the fields of one scraped user profile record.
var UserItemSchema = New(
	Field{"item_id", Int()},
	Field{"bgg_user_name", String()},
	Field{"first_name", String()},
	Field{"last_name", String()},
	Field{"registered", Int()},
	Field{"last_login", String()},
	Field{"country", String()},
	Field{"region", String()},
	Field{"city", String()},
	Field{"external_link", List(String())},
	Field{"image_url", List(String())},
	Field{"image_url_download", List(String())},
	Field{"image_file", imageFile},
	Field{"image_blurhash", imageBlurhash},
	Field{"published_at", String()},
	Field{"updated_at", String()},
	Field{"scraped_at", String()},
)

// RatingItemSchema declares the fields of one scraped rating record.
var RatingItemSchema = New(
	Field{"item_id", String()},
	Field{"bgg_id", Int()},
	Field{"bgg_user_name", String()},
	Field{"bgg_user_rating", Float()},
	Field{"bgg_user_owned", Bool()},
	Field{"bgg_user_prev_owned", Bool()},
	Field{"bgg_user_for_trade", Bool()},
	Field{"bgg_user_want_in_trade", Bool()},
	Field{"bgg_user_want_to_play", Bool()},
	Field{"bgg_user_want_to_buy", Bool()},
	Field{"bgg_user_preordered", Bool()},
	Field{"bgg_user_wishlist", Int()},
	Field{"bgg_user_play_count", Int()},
	Field{"comment", String()},
	Field{"published_at", String()},
	Field{"updated_at", String()},
	Field{"scraped_at", String()},
)

var itemSchemas = map[string]Schema{
	GameItem:   GameItemSchema,
	UserItem:   UserItemSchema,
	RatingItem: RatingItemSchema,
}

// ForItem returns the schema for an item kind.
func ForItem(item string) (Schema, error) {
	s, ok := itemSchemas[item]
	if !ok {
		return Schema{}, fmt.Errorf("unknown item type: %s", item)
	}
	return s, nil
}
